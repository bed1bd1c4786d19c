package gemini

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/summary"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
)

// Instruction renders the system instruction from the rule tables, so the
// model and the rules mode share one source of truth.
func Instruction(tax *taxonomy.Taxonomy, ref time.Time) string {
	day := model.NewDate(ref).String()
	var sb strings.Builder

	sb.WriteString("你是一位專業、細心且具有嚴格邏輯的專案管理助理。\n")
	sb.WriteString("你的核心任務是將所有非結構化的輸入內容（文字、語音、檔案、連結）轉換為一個或多個結構化的 JSON 任務物件，並生成一份摘要。\n\n")
	fmt.Fprintf(&sb, "### 執行基準\n基準日期：所有相對的時間描述（例如：「下週一」、「明天」、「三個工作天內」）都以 %s 作為今天計算，並轉換為 YYYY-MM-DD 格式。\n\n", day)

	sb.WriteString("### 第一層：特殊指令與優先級判斷（依序檢查，第一個觸發者生效）\n")
	for _, trig := range tax.Triggers {
		fmt.Fprintf(&sb, "**%s**\n- 觸發關鍵字：%s\n", trig.Label, strings.Join(trig.Phrases, ", "))
		switch trig.Kind {
		case taxonomy.TriggerExecutive:
			fmt.Fprintf(&sb, "- priority → %s\n- dueDate → %s\n- category → %s\n- assignee → %s\n- description 加註：「%s」\n- 不進入第二層\n",
				model.PriorityUrgent.Label(), day, taxonomy.CategoryExecutive, taxonomy.ExecutiveLiaison, taxonomy.ExecutiveNote)
		case taxonomy.TriggerDelegated:
			fmt.Fprintf(&sb, "- priority → %s\n- 繼續第二層分析\n", model.PriorityHigh.Label())
		case taxonomy.TriggerUrgent:
			fmt.Fprintf(&sb, "- priority → %s\n- title 最前方加上 %s\n- 繼續第二層分析\n", model.PriorityUrgent.Label(), taxonomy.UrgentTag)
		}
	}
	fmt.Fprintf(&sb, "未觸發任何規則時 priority → %s。\n\n", model.PriorityMedium.Label())

	sb.WriteString("### 第二層：部門關鍵字與負責人指派\n")
	for _, d := range tax.Departments {
		phrases := make([]string, 0, len(d.Keywords))
		for _, k := range d.Keywords {
			phrases = append(phrases, k.Phrase)
		}
		fmt.Fprintf(&sb, "- **%s (%s)**：%s\n", d.Name, d.Alias, strings.Join(phrases, ", "))
	}
	fmt.Fprintf(&sb, "- 單一匹配：category 設為該部門。\n")
	fmt.Fprintf(&sb, "- 多重匹配：category 設為與核心動詞最相關的部門，其他部門在 description 加註「%s」。\n", taxonomy.RelatedNote("[部門]"))
	fmt.Fprintf(&sb, "- 無匹配：category 設為 \"%s\"。\n\n", taxonomy.CategoryUnassigned)

	sb.WriteString("### 負責人\n")
	for _, name := range tax.LiaisonNames() {
		var cats []string
		for _, c := range tax.Categories() {
			if tax.LiaisonFor(c) == name {
				cats = append(cats, c)
			}
		}
		fmt.Fprintf(&sb, "- %s → %s\n", strings.Join(cats, ", "), name)
	}

	fmt.Fprintf(&sb, "\n### 其他欄位\n- status 一律為 \"%s\"。\n", model.StatusTodo.Label())
	sb.WriteString("- dueDate：內容明確提到日期時轉換為 YYYY-MM-DD，否則為 null。\n")
	fmt.Fprintf(&sb, "- summary：長篇文章、會議記錄或文件內容以條列式總結；簡短指令則填「%s」。\n\n", summary.NoSummaryNeeded)
	sb.WriteString("你必須輸出包含 'tasks' 陣列和 'summary' 欄位的單一 JSON 物件。\n")
	return sb.String()
}

// ResponseSchema constrains the model output to the task draft shape, with
// every enumerated field limited to the taxonomy's values.
func ResponseSchema(tax *taxonomy.Taxonomy) *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	enum := func(desc string, values ...string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Enum: values}
	}

	priorities := []string{
		model.PriorityUrgent.Label(), model.PriorityHigh.Label(),
		model.PriorityMedium.Label(), model.PriorityLow.Label(),
	}
	due := str("截止日期，格式為 YYYY-MM-DD。若無則為 null。")
	due.Nullable = genai.Ptr(true)

	task := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       str("任務的簡潔標題。若為急件需加" + taxonomy.UrgentTag + "標籤。"),
			"description": str("任務的詳細描述和原始上下文，加註內容也寫在這裡。"),
			"priority":    enum("任務優先級。", priorities...),
			"status":      enum("任務狀態，固定為待辦事項。", model.StatusTodo.Label()),
			"category":    enum("任務所屬部門。", tax.Categories()...),
			"assignee":    enum("任務負責人的顯示名稱。", tax.LiaisonNames()...),
			"dueDate":     due,
		},
		Required:         []string{"title", "description", "priority", "status", "category", "assignee"},
		PropertyOrdering: []string{"title", "description", "priority", "status", "category", "assignee", "dueDate"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tasks": {
				Type:        genai.TypeArray,
				Description: "識別和提取出的所有具體工作任務列表。",
				Items:       task,
			},
			"summary": str("長篇輸入的條列式摘要；簡短指令填「" + summary.NoSummaryNeeded + "」。"),
		},
		Required: []string{"tasks"},
	}
}
