package narrative

import (
	"fmt"
	"sort"
	"strings"
)

// Persona is the synthesized profile attached to a result.
type Persona struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Tags            []string `json:"tags"`
	Strengths       []string `json:"strengths"`
	Growth          []string `json:"growth"`
	ExplorationPlan []string `json:"explorationPlan"`
}

// Ranked is a dimension reduced to what ranking and persona text need.
type Ranked struct {
	Key        string
	Name       string
	Percentage int
}

// personaIndex contrasts the mean of one key group against another and labels the gap.
type personaIndex struct {
	plus, minus    []string
	high, mid, low string
}

var (
	dominanceIndex = personaIndex{
		plus:  []string{"H", "J", "L", "C", "U"},
		minus: []string{"G", "I", "K", "B", "T"},
		high:  "主导决策型",
		mid:   "可切换决策型",
		low:   "接纳响应型",
	}
	bondingIndex = personaIndex{
		plus:  []string{"N", "Q", "M"},
		minus: []string{"O", "R", "E"},
		high:  "关系凝聚型",
		mid:   "连接平衡型",
		low:   "体验自主型",
	}
	noveltyIndex = personaIndex{
		plus:  []string{"S", "A", "E", "F", "P", "V", "W"},
		minus: []string{"J", "I"},
		high:  "高探索节奏",
		mid:   "稳态探索节奏",
		low:   "深耕稳定节奏",
	}
)

const personaIndexThreshold = 8

func (p personaIndex) label(scores map[string]int) string {
	value := averageOf(scores, p.plus) - averageOf(scores, p.minus)
	switch {
	case value >= personaIndexThreshold:
		return p.high
	case value <= -personaIndexThreshold:
		return p.low
	default:
		return p.mid
	}
}

// averageOf is the mean of the keys present in scores, or 50 when none are.
func averageOf(scores map[string]int, keys []string) float64 {
	sum, n := 0, 0
	for _, k := range keys {
		if v, ok := scores[k]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 50
	}
	return float64(sum) / float64(n)
}

// RankDescending returns a copy of dims stably sorted by percentage, highest first.
func RankDescending(dims []Ranked) []Ranked {
	ordered := make([]Ranked, len(dims))
	copy(ordered, dims)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Percentage > ordered[j].Percentage
	})
	return ordered
}

// topAndBottom returns the first three and the last three of ordered, both in ranked order.
func topAndBottom(ordered []Ranked) (top, bottom []Ranked) {
	n := len(ordered)
	top = ordered[:min(3, n)]
	bottom = ordered[n-min(3, n):]
	return top, bottom
}

func names(dims []Ranked) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = d.Name
	}
	return strings.Join(parts, "、")
}

func nameAt(dims []Ranked, i int, fallback string) string {
	if i < len(dims) && dims[i].Name != "" {
		return dims[i].Name
	}
	return fallback
}

// BuildPersona synthesizes the persona from all dimensions and the impact text of the
// strongest association insight, which may be empty.
func (c *Composer) BuildPersona(dims []Ranked, strongestImpact string) Persona {
	ordered := RankDescending(dims)
	top, bottom := topAndBottom(ordered)

	scores := make(map[string]int, len(dims))
	for _, d := range dims {
		scores[d.Key] = d.Percentage
	}
	dominance := dominanceIndex.label(scores)
	bonding := bondingIndex.label(scores)
	novelty := noveltyIndex.label(scores)

	associationLine := "维度分布均衡，主要由单维度偏好直接驱动。"
	if strongestImpact != "" {
		associationLine = "当前最显著联动：" + strongestImpact
	}

	return Persona{
		Title: Normalize(fmt.Sprintf("%s驱动的%s画像", nameAt(top, 0, "综合"), dominance)),
		Summary: Normalize(fmt.Sprintf("你的核心驱动集中在 %s。人格呈现为%s、%s、%s三轴并行。%s",
			names(top), dominance, bonding, novelty, associationLine)),
		Tags: []string{dominance, bonding, novelty, fmt.Sprintf("核心维度：%d 项", len(top))},
		Strengths: []string{
			Normalize(fmt.Sprintf("执行优势：在 %s 上，你进入状态快、稳定度高。", nameAt(top, 0, "核心议题"))),
			Normalize(fmt.Sprintf("协同优势：你能把 %s 与关系节奏联动，形成持续体验质量。", nameAt(top, 1, "次高维度"))),
			Normalize(fmt.Sprintf("成长优势：你愿意为 %s 建立规则、复盘并持续优化。", nameAt(top, 2, "第三维度"))),
		},
		Growth: []string{
			Normalize(fmt.Sprintf("补强建议：把 %s 作为“低压训练区”，用小步验证代替一次到位。", names(bottom))),
			Normalize("沟通建议：每次互动坚持“目标、边界、退出条件”三段式确认。"),
			Normalize("节奏建议：高强度场景后保留恢复窗口，并在次日做状态回访。"),
		},
		ExplorationPlan: []string{
			Normalize("第1步：先稳定一个高分维度的流程模板（前置协商-过程检查-结束回收）。"),
			Normalize("第2步：在模板稳定后，只增加一个新变量并记录主观体验变化。"),
			Normalize("第3步：每三次体验做一次复盘，更新禁区、偏好和协商条款。"),
		},
	}
}
