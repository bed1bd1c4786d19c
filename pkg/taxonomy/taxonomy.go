// Package taxonomy holds the canonical rule tables of the classification
// engine: tier-one trigger rules, the ordered department keyword sets and the
// category to liaison lookup. Both execution modes read these tables.
package taxonomy

// TriggerKind names a tier-one rule.
type TriggerKind string

const (
	TriggerNone      TriggerKind = ""
	TriggerExecutive TriggerKind = "executive-directive"
	TriggerDelegated TriggerKind = "delegated-task"
	TriggerUrgent    TriggerKind = "urgent"
)

// Trigger is a tier-one rule: any of Phrases forces the rule's outcome.
type Trigger struct {
	Kind    TriggerKind
	Label   string
	Phrases []string
}

// Keyword is a department keyword. Action keywords name the work itself
// (inspect, purchase, repair) rather than its subject and rank higher when
// several departments match.
type Keyword struct {
	Phrase string
	Action bool
}

// Department is one entry of the tier-two taxonomy.
type Department struct {
	Name     string
	Alias    string
	Keywords []Keyword
}

// Taxonomy is the complete rule table.
type Taxonomy struct {
	Triggers    []Trigger
	Departments []Department
	// Liaisons maps a category to its default assignee.
	Liaisons map[string]string
}

const (
	CategoryExecutive  = "Executive Directive"
	CategoryUnassigned = "Unassigned"

	Quality       = "品質確保"
	RnD           = "有機新產品"
	SupplyChain   = "運籌"
	Contract      = "代工"
	Legal         = "法務"
	HR            = "人資"
	Admin         = "行政"
	GeneralAffair = "總務"
	Facilities    = "能設"
	Safety        = "職安"

	LiaisonA = "艾蜜莉"
	LiaisonB = "班傑明"
	LiaisonC = "克蘿伊"
	LiaisonD = "丹尼爾"
	LiaisonE = "奥莉薇亞"

	// ExecutiveLiaison receives every executive directive.
	ExecutiveLiaison = LiaisonA

	// UrgentTag prefixes the title of urgent drafts.
	UrgentTag = "【急件】"

	// ExecutiveNote is appended to the description of executive directives.
	ExecutiveNote = "此為董總交辦事項，請艾蜜莉確認任務細節後手動調整指派。"
)

// RelatedNote is the annotation for a runner-up department.
func RelatedNote(department string) string {
	return "此任務亦與 " + department + " 相關，請注意。"
}

func kw(phrases ...string) []Keyword {
	out := make([]Keyword, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, Keyword{Phrase: p})
	}
	return out
}

func act(phrases ...string) []Keyword {
	out := kw(phrases...)
	for i := range out {
		out[i].Action = true
	}
	return out
}

func join(sets ...[]Keyword) []Keyword {
	var out []Keyword
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

var defaultTaxonomy = Taxonomy{
	Triggers: []Trigger{
		{Kind: TriggerExecutive, Label: "董總交辦", Phrases: []string{"老闆交代", "董事長說", "總經理指示", "James說"}},
		{Kind: TriggerDelegated, Label: "副總任務", Phrases: []string{"我需要", "我這邊", "我的任務", "幫我處理"}},
		{Kind: TriggerUrgent, Label: "急件", Phrases: []string{"急", "緊急", "立刻", "馬上", "今天完成", "十萬火急"}},
	},
	Departments: []Department{
		{Name: Quality, Alias: "QC/QA", Keywords: join(
			kw("品質", "QC", "SOP", "COA", "ISO", "GMPC", "客訴", "異常", "法規"),
			act("檢驗", "測試", "矯正預防"),
		)},
		{Name: RnD, Alias: "R&D", Keywords: join(
			kw("研發", "R&D", "新品", "配方", "成分", "原料", "植萃"),
			act("打樣", "實驗", "試產"),
		)},
		{Name: SupplyChain, Alias: "SCM", Keywords: join(
			kw("供應鏈", "物流", "倉儲", "庫存", "訂單", "PO", "供應商", "進出口", "ERP"),
			act("採購", "詢價"),
		)},
		{Name: Contract, Alias: "OEM/ODM", Keywords: join(
			kw("代工", "OEM", "ODM", "客戶", "品牌", "交期", "出貨排程"),
			act("報價", "量產"),
		)},
		{Name: Legal, Alias: "Legal", Keywords: join(
			kw("合約", "協議", "法律", "訴訟", "智財", "專利", "商標"),
			act("審核"),
		)},
		{Name: HR, Alias: "HR", Keywords: join(
			kw("薪資", "考績", "勞健保"),
			act("招募", "面試", "訓練"),
		)},
		{Name: Admin, Alias: "Admin", Keywords: join(
			kw("會議", "會議室", "差旅", "訪客", "文具", "檔案管理"),
			act("訂機票", "訂飯店"),
		)},
		{Name: GeneralAffair, Alias: "General Affairs", Keywords: join(
			kw("設備", "水電", "辦公室", "公務車"),
			act("維修", "保養", "裝修", "清潔"),
		)},
		{Name: Facilities, Alias: "Facilities/Energy", Keywords: join(
			kw("能設", "廠務", "水電", "空調", "機台", "工程", "能源", "消防"),
			act("施工"),
		)},
		{Name: Safety, Alias: "EHS", Keywords: join(
			kw("職安", "工安", "環安衛", "EHS", "化學品", "SDS"),
			act("消防演習", "急救"),
		)},
	},
	Liaisons: map[string]string{
		CategoryUnassigned: LiaisonA,
		CategoryExecutive:  LiaisonA,
		Quality:            LiaisonA,
		Legal:              LiaisonA,
		RnD:                LiaisonB,
		Facilities:         LiaisonB,
		SupplyChain:        LiaisonC,
		Safety:             LiaisonC,
		Contract:           LiaisonD,
		HR:                 LiaisonE,
		Admin:              LiaisonE,
		GeneralAffair:      LiaisonE,
	},
}

// Default returns the canonical taxonomy.
func Default() *Taxonomy {
	return &defaultTaxonomy
}

// LiaisonFor returns the default assignee of a category; unknown categories
// fall back to the Unassigned liaison.
func (t *Taxonomy) LiaisonFor(category string) string {
	if name, ok := t.Liaisons[category]; ok {
		return name
	}
	return t.Liaisons[CategoryUnassigned]
}

// Categories lists every valid category: the executive directive, each
// department in declaration order, then Unassigned.
func (t *Taxonomy) Categories() []string {
	out := []string{CategoryExecutive}
	for _, d := range t.Departments {
		out = append(out, d.Name)
	}
	return append(out, CategoryUnassigned)
}

// IsCategory reports whether name is a valid category.
func (t *Taxonomy) IsCategory(name string) bool {
	for _, c := range t.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// LiaisonNames lists the distinct liaison names in first-seen category order.
func (t *Taxonomy) LiaisonNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range t.Categories() {
		name := t.LiaisonFor(c)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
