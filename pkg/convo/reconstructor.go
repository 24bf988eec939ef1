package convo

import (
	"fmt"
	"sort"
	"strings"

	"convoscope/pkg/model"
)

// Group buckets clip records into conversations keyed by the canonical
// character pair, conversation number and optional topic. Within each
// conversation, clips are partitioned by part number and each part's
// variations are sorted ascending; index 0 is the default take.
// Completeness is evaluated for every conversation before returning.
func Group(records []*model.ClipRecord) map[model.ConversationKey]*model.Conversation {
	conversations := make(map[model.ConversationKey]*model.Conversation)

	for _, rec := range records {
		key := model.NewConversationKey(rec.CharacterA, rec.CharacterB, rec.Number, rec.Topic)
		conv, ok := conversations[key]
		if !ok {
			conv = &model.Conversation{
				Key:     key,
				Starter: rec.Starter,
				Parts:   make(map[int][]*model.ClipRecord),
			}
			conversations[key] = conv
		}
		conv.Clips = append(conv.Clips, rec)
		conv.Parts[rec.Part] = append(conv.Parts[rec.Part], rec)
	}

	for _, conv := range conversations {
		for _, takes := range conv.Parts {
			sort.Slice(takes, func(i, j int) bool {
				return takes[i].Variation < takes[j].Variation
			})
		}
		Evaluate(conv)
	}

	return conversations
}

// Evaluate recomputes the completeness verdict of a conversation in place.
// A conversation is complete iff its part numbers form a contiguous run
// starting at 1 and it has more than one part. A single part 1 on its own
// is incomplete: downstream display depends on that exact policy.
func Evaluate(conv *model.Conversation) {
	complete, missing, reasons := Completeness(conv.SortedParts())
	conv.Complete = complete
	conv.MissingParts = missing
	conv.Reasons = reasons
}

// Completeness evaluates a sorted list of distinct part numbers and returns
// the verdict, the sorted deduplicated missing part numbers, and the
// human-readable reasons. The "only one part found" reason contributes no
// missing part numbers.
func Completeness(parts []int) (complete bool, missing []int, reasons []string) {
	missing = []int{}
	if len(parts) == 0 {
		return false, missing, []string{"no parts found"}
	}

	minPart := parts[0]
	maxPart := parts[len(parts)-1]
	present := make(map[int]bool, len(parts))
	for _, p := range parts {
		present[p] = true
	}

	noGaps := true
	var gaps []int
	for p := minPart; p <= maxPart; p++ {
		if !present[p] {
			noGaps = false
			gaps = append(gaps, p)
		}
	}
	startsAtOne := minPart == 1
	multiPart := len(parts) > 1

	if !startsAtOne {
		reasons = append(reasons, fmt.Sprintf("missing parts 1 through %d", minPart-1))
		for p := 1; p < minPart; p++ {
			missing = append(missing, p)
		}
	}
	if !noGaps {
		reasons = append(reasons, "missing parts: "+joinInts(gaps))
		missing = append(missing, gaps...)
	}
	if !multiPart {
		reasons = append(reasons, "only one part found")
	}

	sort.Ints(missing)
	missing = dedupeSorted(missing)

	return noGaps && startsAtOne && multiPart, missing, reasons
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

func dedupeSorted(nums []int) []int {
	out := nums[:0]
	for i, n := range nums {
		if i == 0 || n != nums[i-1] {
			out = append(out, n)
		}
	}
	return out
}
