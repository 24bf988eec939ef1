package convo

import (
	"reflect"
	"testing"

	"convoscope/pkg/model"
)

func clip(filename, starter, a, b, topic string, number, part, variation int) *model.ClipRecord {
	return &model.ClipRecord{
		Filename: filename, Starter: starter,
		CharacterA: a, CharacterB: b, Topic: topic,
		Number: number, Part: part, Variation: variation,
	}
}

func TestGroup_PairOrderCommutative(t *testing.T) {
	records := []*model.ClipRecord{
		clip("a.mp3", "ivy", "ivy", "vex", "", 1, 1, 1),
		clip("b.mp3", "vex", "vex", "ivy", "", 1, 2, 1),
	}
	conversations := Group(records)
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	for key := range conversations {
		if key.CharacterA != "ivy" || key.CharacterB != "vex" {
			t.Errorf("key pair = (%s, %s), want canonical (ivy, vex)", key.CharacterA, key.CharacterB)
		}
	}
}

func TestGroup_TopicSeparatesConversations(t *testing.T) {
	records := []*model.ClipRecord{
		clip("a.mp3", "ivy", "ivy", "vex", "", 1, 1, 1),
		clip("b.mp3", "ivy", "ivy", "vex", "victory", 1, 1, 1),
	}
	conversations := Group(records)
	if len(conversations) != 2 {
		t.Fatalf("expected topic and no-topic clips in separate conversations, got %d", len(conversations))
	}
}

func TestGroup_VariationOrdering(t *testing.T) {
	records := []*model.ClipRecord{
		clip("v3.mp3", "ivy", "ivy", "vex", "", 1, 1, 3),
		clip("v1.mp3", "ivy", "ivy", "vex", "", 1, 1, 1),
		clip("v2.mp3", "ivy", "ivy", "vex", "", 1, 1, 2),
	}
	conversations := Group(records)
	for _, conv := range conversations {
		takes := conv.Parts[1]
		if len(takes) != 3 {
			t.Fatalf("expected 3 takes for part 1, got %d", len(takes))
		}
		if takes[0].Variation != 1 {
			t.Errorf("default take variation = %d, want 1", takes[0].Variation)
		}
		if takes[0] != conv.DefaultTake(1) {
			t.Error("DefaultTake(1) must be the sorted head of the part group")
		}
	}
}

func TestGroup_EveryRecordInExactlyOneConversation(t *testing.T) {
	records := []*model.ClipRecord{
		clip("a.mp3", "ivy", "ivy", "vex", "", 1, 1, 1),
		clip("b.mp3", "ivy", "ivy", "vex", "", 2, 1, 1),
		clip("c.mp3", "ash", "ash", "ivy", "", 1, 1, 1),
	}
	conversations := Group(records)
	total := 0
	for _, conv := range conversations {
		total += len(conv.Clips)
	}
	if total != len(records) {
		t.Errorf("clips across conversations = %d, want %d", total, len(records))
	}
	if len(conversations) != 3 {
		t.Errorf("expected 3 conversations, got %d", len(conversations))
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name         string
		parts        []int
		wantComplete bool
		wantMissing  []int
		wantReasons  []string
	}{
		{
			name:         "Contiguous",
			parts:        []int{1, 2, 3},
			wantComplete: true,
			wantMissing:  []int{},
			wantReasons:  nil,
		},
		{
			name:         "MissingStart",
			parts:        []int{2, 3},
			wantComplete: false,
			wantMissing:  []int{1},
			wantReasons:  []string{"missing parts 1 through 1"},
		},
		{
			name:         "Gap",
			parts:        []int{1, 3},
			wantComplete: false,
			wantMissing:  []int{2},
			wantReasons:  []string{"missing parts: 2"},
		},
		{
			// A single part 1 has no gaps and starts at 1, but a
			// conversation needs at least two parts.
			name:         "SinglePart",
			parts:        []int{1},
			wantComplete: false,
			wantMissing:  []int{},
			wantReasons:  []string{"only one part found"},
		},
		{
			name:         "SingleLatePart",
			parts:        []int{3},
			wantComplete: false,
			wantMissing:  []int{1, 2},
			wantReasons:  []string{"missing parts 1 through 2", "only one part found"},
		},
		{
			name:         "MissingStartAndGap",
			parts:        []int{3, 5},
			wantComplete: false,
			wantMissing:  []int{1, 2, 4},
			wantReasons:  []string{"missing parts 1 through 2", "missing parts: 4"},
		},
		{
			name:         "MultipleGaps",
			parts:        []int{1, 4, 6},
			wantComplete: false,
			wantMissing:  []int{2, 3, 5},
			wantReasons:  []string{"missing parts: 2, 3, 5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete, missing, reasons := Completeness(tt.parts)
			if complete != tt.wantComplete {
				t.Errorf("complete = %v, want %v", complete, tt.wantComplete)
			}
			if !reflect.DeepEqual(missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", missing, tt.wantMissing)
			}
			if !reflect.DeepEqual(reasons, tt.wantReasons) {
				t.Errorf("reasons = %v, want %v", reasons, tt.wantReasons)
			}
		})
	}
}

func TestEvaluate_RecomputesOnMembershipChange(t *testing.T) {
	conversations := Group([]*model.ClipRecord{
		clip("p1.mp3", "ivy", "ivy", "vex", "", 1, 1, 1),
	})
	var conv *model.Conversation
	for _, c := range conversations {
		conv = c
	}
	if conv.Complete {
		t.Fatal("single-part conversation must be incomplete")
	}

	rec := clip("p2.mp3", "ivy", "ivy", "vex", "", 1, 2, 1)
	conv.Clips = append(conv.Clips, rec)
	conv.Parts[2] = []*model.ClipRecord{rec}
	Evaluate(conv)

	if !conv.Complete {
		t.Error("conversation with parts {1,2} must be complete after re-evaluation")
	}
	if len(conv.MissingParts) != 0 {
		t.Errorf("missing = %v, want none", conv.MissingParts)
	}
}
