package explanation

import "strings"

// Summary templates per language, outcome, and style. The %s placeholder, if
// present, receives the risk band. Languages without a template fall back to
// English via the synthesizer's matcher.
//
// Thai strings carried over from the original explanation rule set.
var summaryTemplates = map[string]map[string]map[Style]string{
	"en": {
		"approved": {
			StyleShort:    "Credit application approved.",
			StyleFormal:   "Credit application approved based on risk assessment criteria. Risk level: %s.",
			StyleAdvisory: "Congratulations! Your credit application has been approved. You have a strong financial profile (risk level: %s).",
		},
		"rejected": {
			StyleShort:    "Credit application declined.",
			StyleFormal:   "Credit application declined based on risk assessment. Risk level: %s.",
			StyleAdvisory: "Your credit application was not approved at this time. Please review the recommendations below to improve your chances for future applications.",
		},
		"review": {
			StyleShort:    "Credit application referred for manual review.",
			StyleFormal:   "Credit application referred for manual review due to mixed risk signals. Risk level: %s.",
			StyleAdvisory: "Your credit application needs a closer look from one of our officers. We will be in touch shortly.",
		},
	},
	"th": {
		"approved": {
			StyleShort:    "คำขอสินเชื่อได้รับการอนุมัติ",
			StyleFormal:   "คำขอสินเชื่อได้รับการอนุมัติตามเกณฑ์การประเมินความเสี่ยง ระดับความเสี่ยง: %s",
			StyleAdvisory: "ยินดีด้วย! คำขอสินเชื่อของคุณได้รับการอนุมัติ คุณมีโปรไฟล์ทางการเงินที่ดี (ระดับความเสี่ยง: %s)",
		},
		"rejected": {
			StyleShort:    "คำขอสินเชื่อไม่ได้รับการอนุมัติ",
			StyleFormal:   "คำขอสินเชื่อไม่ได้รับการอนุมัติตามผลการประเมินความเสี่ยง ระดับความเสี่ยง: %s",
			StyleAdvisory: "คำขอสินเชื่อของคุณไม่ได้รับการอนุมัติในครั้งนี้ กรุณาดูคำแนะนำด้านล่างเพื่อปรับปรุงโอกาสในการขอสินเชื่อครั้งต่อไป",
		},
		"review": {
			StyleShort:    "คำขอสินเชื่อถูกส่งต่อเพื่อพิจารณาเพิ่มเติม",
			StyleFormal:   "คำขอสินเชื่อถูกส่งต่อให้เจ้าหน้าที่พิจารณาเนื่องจากสัญญาณความเสี่ยงไม่ชัดเจน ระดับความเสี่ยง: %s",
			StyleAdvisory: "คำขอสินเชื่อของคุณต้องได้รับการพิจารณาเพิ่มเติมจากเจ้าหน้าที่ เราจะติดต่อกลับโดยเร็ว",
		},
	},
}

// renderRuleText substitutes {attribute} and {threshold} tokens in localized
// rule text. Text without tokens passes through unchanged.
func renderRuleText(text, attribute, threshold string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	replacer := strings.NewReplacer(
		"{attribute}", attribute,
		"{threshold}", threshold,
	)
	return replacer.Replace(text)
}
