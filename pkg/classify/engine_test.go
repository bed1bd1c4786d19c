package classify

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
	"github.com/harrisonrobin/taskdispatch/pkg/taxonomy"
)

var refDate = time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)

func TestClassifyExecutiveDirective(t *testing.T) {
	task := Classify("老闆交代：下週一前完成報告", refDate)

	if task.Priority != model.PriorityUrgent {
		t.Errorf("Expected priority Urgent, got %s", task.Priority)
	}
	if task.Category != taxonomy.CategoryExecutive {
		t.Errorf("Expected category %q, got %q", taxonomy.CategoryExecutive, task.Category)
	}
	if task.Assignee != taxonomy.LiaisonA {
		t.Errorf("Expected assignee %s, got %s", taxonomy.LiaisonA, task.Assignee)
	}
	if task.DueDate == nil || task.DueDate.String() != "2025-09-28" {
		t.Errorf("Expected due date 2025-09-28, got %v", task.DueDate)
	}
	if task.Status != model.StatusTodo {
		t.Errorf("Expected status Todo, got %s", task.Status)
	}
	if !strings.HasSuffix(task.Description, taxonomy.ExecutiveNote) {
		t.Errorf("Expected description to end with the executive note, got: %s", task.Description)
	}
}

func TestExecutiveDirectiveShortCircuitsDepartments(t *testing.T) {
	inputs := []string{
		"董事長說品質部門要馬上檢驗原料",
		"總經理指示：請採購 10 台新設備並安排招募面試",
		"James說明天前把合約送法務審核",
		"老闆交代我需要處理客訴",
	}
	for _, in := range inputs {
		task := Classify(in, refDate)
		if task.Category != taxonomy.CategoryExecutive || task.Priority != model.PriorityUrgent {
			t.Errorf("%q: expected executive directive, got category=%q priority=%s", in, task.Category, task.Priority)
		}
		if task.DueDate == nil || task.DueDate.String() != "2025-09-28" {
			t.Errorf("%q: expected due date forced to reference date, got %v", in, task.DueDate)
		}
		if strings.Contains(task.Description, "此任務亦與") {
			t.Errorf("%q: tier two must not annotate executive directives: %s", in, task.Description)
		}
	}
}

func TestClassifyQualityScenario(t *testing.T) {
	task := Classify("品質部門需要檢驗新原料", refDate)

	if task.Category != taxonomy.Quality {
		t.Errorf("Expected category %s, got %s", taxonomy.Quality, task.Category)
	}
	if task.Assignee != taxonomy.LiaisonA {
		t.Errorf("Expected assignee %s, got %s", taxonomy.LiaisonA, task.Assignee)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Expected priority Medium, got %s", task.Priority)
	}
	if !strings.Contains(task.Description, taxonomy.RelatedNote(taxonomy.RnD)) {
		t.Errorf("Expected runner-up note for %s, got: %s", taxonomy.RnD, task.Description)
	}
	if task.DueDate != nil {
		t.Errorf("Expected no due date, got %v", task.DueDate)
	}
}

func TestClassifyTiers(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		priority model.Priority
		category string
		assignee string
		title    string
	}{
		{"single department", "請安排下週的面試", model.PriorityMedium, taxonomy.HR, taxonomy.LiaisonE, "請安排下週的面試"},
		{"no match", "整理一下想法", model.PriorityMedium, taxonomy.CategoryUnassigned, taxonomy.LiaisonA, "整理一下想法"},
		{"delegated", "我需要採購一批新的紙箱", model.PriorityHigh, taxonomy.SupplyChain, taxonomy.LiaisonC, "我需要採購一批新的紙箱"},
		{"urgent", "緊急：空調故障請立刻處理", model.PriorityUrgent, taxonomy.Facilities, taxonomy.LiaisonB, "【急件】緊急：空調故障請立刻處理"},
		{"delegated beats urgent", "幫我處理這個，很急", model.PriorityHigh, taxonomy.CategoryUnassigned, taxonomy.LiaisonA, "幫我處理這個，很急"},
		{"contract manufacturing", "客戶要求提前量產", model.PriorityMedium, taxonomy.Contract, taxonomy.LiaisonD, "客戶要求提前量產"},
		{"full width ascii", "ＱＣ報告請補上", model.PriorityMedium, taxonomy.Quality, taxonomy.LiaisonA, "ＱＣ報告請補上"},
		{"lower case ascii", "請ehs窗口確認", model.PriorityMedium, taxonomy.Safety, taxonomy.LiaisonC, "請ehs窗口確認"},
		{"ascii needs word boundary", "Please send the report", model.PriorityMedium, taxonomy.CategoryUnassigned, taxonomy.LiaisonA, "Please send the report"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			task := Classify(c.input, refDate)
			if task.Priority != c.priority {
				t.Errorf("Expected priority %s, got %s", c.priority, task.Priority)
			}
			if task.Category != c.category {
				t.Errorf("Expected category %s, got %s", c.category, task.Category)
			}
			if task.Assignee != c.assignee {
				t.Errorf("Expected assignee %s, got %s", c.assignee, task.Assignee)
			}
			if task.Title != c.title {
				t.Errorf("Expected title %q, got %q", c.title, task.Title)
			}
			if task.Status != model.StatusTodo {
				t.Errorf("Expected status Todo, got %s", task.Status)
			}
		})
	}
}

func TestMultipleDepartmentsRanking(t *testing.T) {
	e := New(nil)

	// Equal centrality falls back to declaration order.
	d := e.Decide("供應商合約")
	if d.Category != taxonomy.SupplyChain {
		t.Errorf("Expected %s by declaration order, got %s", taxonomy.SupplyChain, d.Category)
	}
	if got := d.RunnersUp(); !reflect.DeepEqual(got, []string{taxonomy.Legal}) {
		t.Errorf("Expected runners up [%s], got %v", taxonomy.Legal, got)
	}

	// An action keyword outranks subject keywords declared earlier.
	d = e.Decide("原料供應商來信要求報價")
	if d.Category != taxonomy.Contract {
		t.Errorf("Expected %s, got %s", taxonomy.Contract, d.Category)
	}
	if got := d.RunnersUp(); !reflect.DeepEqual(got, []string{taxonomy.RnD, taxonomy.SupplyChain}) {
		t.Errorf("Expected runners up in declaration order, got %v", got)
	}

	task := e.Classify("原料供應商來信要求報價", refDate)
	for _, dept := range []string{taxonomy.RnD, taxonomy.SupplyChain} {
		if !strings.Contains(task.Description, taxonomy.RelatedNote(dept)) {
			t.Errorf("Expected note for %s in %q", dept, task.Description)
		}
	}
}

func TestDecideDegraded(t *testing.T) {
	e := New(nil)
	if d := e.Decide("隨便聊聊"); !d.Degraded {
		t.Error("Expected a decision with no rule to be degraded")
	}
	if d := e.Decide("十萬火急"); d.Degraded {
		t.Error("A tier-one match is not degraded")
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	input := "我這邊需要 R&D 打樣，並請採購詢價，下週三前回覆"
	first := Classify(input, refDate)
	for i := 0; i < 20; i++ {
		again := Classify(input, refDate)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Expected identical drafts, got %+v and %+v", first, again)
		}
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("Expected identical JSON, got %s and %s", a, b)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "!!!", "。。。", "\x00\xff", strings.Repeat("測", 5000)} {
		task := Classify(in, refDate)
		if task.Status != model.StatusTodo || !task.Priority.Valid() {
			t.Errorf("%q: expected a valid draft, got %+v", in, task)
		}
	}
}

func TestClassifyItemUsesContext(t *testing.T) {
	task := New(nil).ClassifyItem("檢驗原料", "老闆交代：", refDate)
	if task.Category != taxonomy.CategoryExecutive {
		t.Errorf("Expected context trigger to apply, got %s", task.Category)
	}
	if task.Title != "檢驗原料" {
		t.Errorf("Expected title from item, got %q", task.Title)
	}

	task = New(nil).ClassifyItem("檢驗原料", "以下事項請在10月5日前完成", refDate)
	if task.DueDate == nil || task.DueDate.String() != "2025-10-05" {
		t.Errorf("Expected due date from context, got %v", task.DueDate)
	}
}
