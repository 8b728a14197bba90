package narrative

import (
	"fmt"
	"sort"
	"strings"
)

// ChartPoint is one bar or radar spoke.
type ChartPoint struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

// ChartSeries sorts dims by percentage descending, ties broken by key ascending.
func ChartSeries(dims []Ranked) []ChartPoint {
	points := make([]ChartPoint, len(dims))
	for i, d := range dims {
		points[i] = ChartPoint{Key: d.Key, Name: d.Name, Percentage: d.Percentage}
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Percentage != points[j].Percentage {
			return points[i].Percentage > points[j].Percentage
		}
		return points[i].Key < points[j].Key
	})
	return points
}

// Overview is the headline block of a report.
type Overview struct {
	TopKey        string `json:"topKey,omitempty"`
	TopName       string `json:"topName,omitempty"`
	TopPercentage int    `json:"topPercentage"`
	HighCount     int    `json:"highCount"`
	Spread        int    `json:"spread"`
}

const highPreferenceFloor = 75

// Summarize computes the overview from a chart series.
func Summarize(chart []ChartPoint) Overview {
	var o Overview
	if len(chart) == 0 {
		return o
	}
	o.TopKey = chart[0].Key
	o.TopName = chart[0].Name
	o.TopPercentage = chart[0].Percentage
	o.Spread = chart[0].Percentage - chart[len(chart)-1].Percentage
	o.HighCount = countHigh(chart)
	return o
}

func countHigh(chart []ChartPoint) int {
	n := 0
	for _, p := range chart {
		if p.Percentage >= highPreferenceFloor {
			n++
		}
	}
	return n
}

func labelled(points []ChartPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%s（%d%%）", p.Name, p.Percentage)
	}
	return strings.Join(parts, "、")
}

// InsightLines renders the five headline statements of a report. relation and impact come
// from the strongest association insight and are empty when there is none.
func InsightLines(chart []ChartPoint, relation, impact string) []string {
	n := len(chart)
	top := chart[:min(3, n)]
	low := chart[n-min(3, n):]

	association := "关联模型未识别到显著联动，说明你的维度分布相对独立。"
	if impact != "" {
		association = fmt.Sprintf("最显著的联动为“%s”：%s", relation, impact)
	}

	return []string{
		fmt.Sprintf("高激活重心集中在 %s。", labelled(top)),
		fmt.Sprintf("低激活端主要是 %s，可作为边界优先讨论区。", labelled(low)),
		fmt.Sprintf("当前共有 %d 个维度达到高偏好区间，建议在高分项上先做规则和照护设计。", countHigh(chart)),
		association,
		"建议将本报告用于自我了解与沟通参考，不应替代医学或临床心理诊断。",
	}
}
