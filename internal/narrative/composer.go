package narrative

import "fmt"

// Analysis is the narrative block attached to one dimension.
type Analysis struct {
	Summary         string `json:"summary"`
	Personality     string `json:"personality"`
	Communication   string `json:"communication"`
	Risk            string `json:"risk"`
	Development     string `json:"development"`
	AssociationHint string `json:"associationHint"`
}

const associationHintThreshold = 4

// Composer renders dimension analyses and personas from a phrase bank.
type Composer struct {
	bank *PhraseBank
}

// NewComposer returns a composer over bank, or over the embedded bank when bank is nil.
func NewComposer(bank *PhraseBank) *Composer {
	if bank == nil {
		bank = DefaultPhraseBank()
	}
	return &Composer{bank: bank}
}

// DimensionInput is what the composer needs to know about one scored dimension.
type DimensionInput struct {
	Key         string
	Name        string
	Description string
	Percentage  int // adjusted
	Base        int // calibrated, before association
}

// Compose builds the narrative for one dimension. It never fails; dimensions without a
// matching preset get the fallback phrasing.
func (c *Composer) Compose(in DimensionInput) Analysis {
	band := BandFor(in.Percentage)
	seedBase := fmt.Sprintf("%s-%s-%d", in.Key, in.Name, in.Percentage)
	preset := c.bank.PresetFor(in.Name, in.Description)

	summary := c.bank.pick(band, "summary", seedBase+"-summary")
	style := c.bank.pick(band, "style", seedBase+"-style")
	communication := c.bank.pick(band, "communication", seedBase+"-communication")
	risk := c.bank.pick(band, "risk", seedBase+"-risk")
	development := c.bank.pick(band, "development", seedBase+"-development")

	return Analysis{
		Summary: Normalize(fmt.Sprintf("%s当前得分 %d%%（%s）。%s %s。%s",
			in.Name, in.Percentage, Level(in.Percentage), summary, preset.Trait, in.Description)),
		Personality: Normalize(fmt.Sprintf("人格侧写：你在“%s”议题呈现%s，并体现出“%s”这一稳定特征。",
			in.Name, style, preset.Trait)),
		Communication:   Normalize(preset.Communication + " " + communication),
		Risk:            Normalize(preset.Risk + " " + risk),
		Development:     Normalize(preset.Exploration + " " + development),
		AssociationHint: Normalize(AssociationHint(in.Percentage - in.Base)),
	}
}

// AssociationHint describes how far associated dimensions moved a dimension's score.
func AssociationHint(delta int) string {
	switch {
	case delta >= associationHintThreshold:
		return "关联维度对该项形成明显上调，说明你的偏好结构存在协同增强。"
	case delta <= -associationHintThreshold:
		return "关联维度对该项形成回调，说明该偏好受其他需求约束。"
	default:
		return "关联维度对该项影响平稳，当前分值以本维度题目驱动为主。"
	}
}
