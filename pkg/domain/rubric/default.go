package rubric

import (
	"fmt"
	"sort"
	"strings"
)

const (
	LocaleEnglish            = "en"
	LocaleTraditionalChinese = "zh-TW"
)

var englishDimensions = []Dimension{
	{
		Name:   "Basic Information Completeness",
		Weight: 15,
		Criteria: []string{
			"Product information (model, lot number, manufacturing date)",
			"Customer information and complaint content",
			"FA number and date",
			"Responsible engineer",
		},
	},
	{
		Name:   "Problem Description and Definition",
		Weight: 15,
		Criteria: []string{
			"Clarity of the failure phenomenon description",
			"Accuracy of the failure mode",
			"Problem scope and impact assessment",
			"Failure rate data",
		},
	},
	{
		Name:   "Analysis Method and Process",
		Weight: 20,
		Criteria: []string{
			"Suitability of analysis methods (optical inspection, SEM, FIB, X-ray, etc.)",
			"Logic and completeness of the analysis steps",
			"Soundness of the experiment design",
			"Correct use of analysis equipment",
		},
	},
	{
		Name:   "Data and Evidence Support",
		Weight: 20,
		Criteria: []string{
			"Sufficiency of analysis data",
			"Clarity and annotation of images and charts",
			"Accuracy of quantitative data",
			"Use of control groups or comparison samples",
		},
	},
	{
		Name:   "Root Cause Analysis",
		Weight: 20,
		Criteria: []string{
			"Depth and accuracy of the root cause",
			"Logical derivation of cause and effect",
			"Application of 5-Why or Fishbone analysis",
			"Arguments excluding other possible causes",
		},
	},
	{
		Name:   "Corrective Actions",
		Weight: 10,
		Criteria: []string{
			"Completeness of short-term and long-term actions",
			"Feasibility and effectiveness of the actions",
			"Preventive measures",
			"Verification plan",
		},
	},
}

var englishBands = []GradeBand{
	{Letter: LetterA, Min: 90, Max: 100, Label: "Excellent report"},
	{Letter: LetterB, Min: 80, Max: 90, Label: "Good report"},
	{Letter: LetterC, Min: 70, Max: 80, Label: "Acceptable report"},
	{Letter: LetterD, Min: 60, Max: 70, Label: "Report needs improvement"},
	{Letter: LetterF, Min: 0, Max: 60, Label: "Failing report"},
}

var chineseDimensions = []Dimension{
	{Name: "基本資訊完整性", Weight: 15, Criteria: []string{"產品資訊(型號、批號、製造日期)", "客戶資訊與投訴內容", "FA 編號與日期", "負責工程師資訊"}},
	{Name: "問題描述與定義", Weight: 15, Criteria: []string{"失效現象描述的清晰度", "失效模式的準確性", "問題範圍與影響評估", "失效率數據"}},
	{Name: "分析方法與流程", Weight: 20, Criteria: []string{"分析方法的適當性(如:光學檢查、SEM、FIB、X-ray等)", "分析步驟的邏輯性與完整性", "實驗設計的合理性", "分析設備使用的正確性"}},
	{Name: "數據與證據支持", Weight: 20, Criteria: []string{"分析數據的充分性", "圖片/圖表的清晰度與標註", "量化數據的準確性", "對照組/比較樣本的使用"}},
	{Name: "根因分析", Weight: 20, Criteria: []string{"根本原因的深度與準確度", "因果關係的邏輯推導", "5-Why 或 Fishbone 分析的應用", "排除其他可能原因的論證"}},
	{Name: "改善對策", Weight: 10, Criteria: []string{"短期與長期對策的完整性", "對策的可行性與有效性", "預防措施的提出", "驗證計畫"}},
}

var chineseBands = []GradeBand{
	{Letter: LetterA, Min: 90, Max: 100, Label: "卓越報告"},
	{Letter: LetterB, Min: 80, Max: 90, Label: "良好報告"},
	{Letter: LetterC, Min: 70, Max: 80, Label: "合格報告"},
	{Letter: LetterD, Min: 60, Max: 70, Label: "待改進報告"},
	{Letter: LetterF, Min: 0, Max: 60, Label: "不合格報告"},
}

var locales = map[string]func() (*Rubric, error){
	LocaleEnglish: func() (*Rubric, error) {
		return New(LocaleEnglish, englishDimensions, englishBands)
	},
	LocaleTraditionalChinese: func() (*Rubric, error) {
		return New(LocaleTraditionalChinese, chineseDimensions, chineseBands)
	},
}

// Default returns the built-in English rubric.
func Default() *Rubric {
	r, err := locales[LocaleEnglish]()
	if err != nil {
		panic(err)
	}
	return r
}

// ForLocale returns the built-in rubric for a locale tag. An empty tag selects
// English.
func ForLocale(locale string) (*Rubric, error) {
	if strings.TrimSpace(locale) == "" {
		locale = LocaleEnglish
	}
	build, ok := locales[locale]
	if !ok {
		return nil, configErr(fmt.Sprintf("unknown rubric locale %q (known: %s)", locale, strings.Join(Locales(), ", ")))
	}
	return build()
}

// Locales lists the built-in locale tags.
func Locales() []string {
	out := make([]string, 0, len(locales))
	for k := range locales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
