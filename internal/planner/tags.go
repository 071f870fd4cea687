package planner

import (
	"sort"
	"strings"
)

// Canonical ingredient tags.
const (
	TagPotato         = "potato"
	TagOkra           = "okra"
	TagCauliflower    = "cauliflower"
	TagSpinach        = "spinach"
	TagPaneer         = "paneer"
	TagMushroom       = "mushroom"
	TagBrinjal        = "brinjal"
	TagPeas           = "peas"
	TagCapsicum       = "capsicum"
	TagChickpea       = "chickpea"
	TagKidneyBeans    = "kidney-beans"
	TagBlackEyedBeans = "black-eyed-beans"
	TagChicken        = "chicken"
	TagFish           = "fish"
	TagEgg            = "egg"
	TagSoy            = "soy"
	TagPumpkin        = "pumpkin"
	TagPointedGourd   = "pointed-gourd"
	TagGreenBeans     = "green-beans"
	TagBroccoli       = "broccoli"
	TagCabbage        = "cabbage"
	TagBitterGourd    = "bitter-gourd"
	TagBottleGourd    = "bottle-gourd"
	TagRoundGourd     = "round-gourd"
)

// tagVariants lists the lowercase spellings that identify each tag in a dish name.
var tagVariants = map[string][]string{
	TagPotato:         {"aloo", "potato", "batata"},
	TagOkra:           {"bhindi", "okra", "lady finger", "ladyfinger"},
	TagCauliflower:    {"gobhi", "gobi", "cauliflower"},
	TagSpinach:        {"palak", "spinach", "saag"},
	TagPaneer:         {"paneer", "cottage cheese"},
	TagMushroom:       {"mushroom", "khumb"},
	TagBrinjal:        {"brinjal", "baingan", "eggplant", "aubergine"},
	TagPeas:           {"peas", "matar", "mutter"},
	TagCapsicum:       {"capsicum", "shimla mirch", "bell pepper"},
	TagChickpea:       {"chana", "chole", "chhole", "chickpea", "kabuli"},
	TagKidneyBeans:    {"rajma", "kidney bean"},
	TagBlackEyedBeans: {"lobia", "black eyed bean", "black-eyed bean", "black eyed", "black-eyed", "chawli"},
	TagChicken:        {"chicken", "murgh"},
	TagFish:           {"fish", "machli", "machhli"},
	TagEgg:            {"egg", "anda curry", "anda bhurji", "omelette", "omelet"},
	TagSoy:            {"soya", "soy", "tofu"},
	TagPumpkin:        {"pumpkin", "kaddu", "sitaphal"},
	TagPointedGourd:   {"parwal", "parval", "pointed gourd"},
	TagGreenBeans:     {"beans", "french bean", "green bean"},
	TagBroccoli:       {"broccoli"},
	TagCabbage:        {"cabbage", "patta gobhi", "patta gobi", "band gobhi", "bandh gobhi"},
	TagBitterGourd:    {"karela", "bitter gourd"},
	TagBottleGourd:    {"lauki", "ghiya", "dudhi", "bottle gourd"},
	TagRoundGourd:     {"tinda", "round gourd"},
}

type tagVariant struct {
	text string
	tag  string
}

// variantsByLength is tagVariants flattened and ordered longest first, so a
// qualified phrase ("patta gobhi") wins over the bare word it contains ("gobhi").
var variantsByLength = buildVariantIndex()

func buildVariantIndex() []tagVariant {
	var index []tagVariant
	for tag, variants := range tagVariants {
		for _, v := range variants {
			index = append(index, tagVariant{text: v, tag: tag})
		}
	}
	sort.Slice(index, func(i, j int) bool {
		if len(index[i].text) != len(index[j].text) {
			return len(index[i].text) > len(index[j].text)
		}
		return index[i].text < index[j].text
	})
	return index
}

// TagSet is the set of canonical ingredient tags found in a dish name.
type TagSet map[string]struct{}

// Has reports whether the set contains tag.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	tags := make([]string, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// ExtractTags maps a free-text dish name onto canonical ingredient tags.
// Matching is case-insensitive on substrings; each matched span is consumed
// so shorter variants nested inside it are not counted again.
func ExtractTags(dish string) TagSet {
	tags := TagSet{}
	name := strings.ToLower(dish)
	for _, v := range variantsByLength {
		if !strings.Contains(name, v.text) {
			continue
		}
		tags[v.tag] = struct{}{}
		name = strings.ReplaceAll(name, v.text, "|")
	}
	return tags
}
