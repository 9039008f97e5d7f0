package assistant

import "testing"

func TestClassifyQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		message  string
		expected QuestionCategory
	}{
		{"analytical", "Please analyze the market trends", QuestionAnalytical},
		{"procedural", "Give me a step by step recipe", QuestionProcedural},
		{"creative", "Brainstorm some startup names", QuestionCreative},
		{"comparative", "Is rust or go a good fit? rust vs go", QuestionComparative},
		{"factual default", "What is the capital of France?", QuestionFactual},
		{"case insensitive", "EXPLAIN relativity", QuestionAnalytical},
		{"latest news is factual", "What is the latest news on inflation?", QuestionFactual},
		{"empty", "", QuestionFactual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyQuestion(tt.message)
			if got != tt.expected {
				t.Errorf("ClassifyQuestion(%q) = %q, want %q", tt.message, got, tt.expected)
			}
		})
	}
}

// Messages matching several keyword sets must resolve to the earliest
// set in the fixed check order.
func TestClassifyQuestionPriorityOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		message  string
		expected QuestionCategory
	}{
		// "compare" is both analytical and comparative; analytical is
		// checked first.
		{"analytical beats comparative", "compare these two papers", QuestionAnalytical},
		// "how to" would be procedural, but "how" matches analytical
		// first.
		{"analytical beats procedural", "how to install linux", QuestionAnalytical},
		// "step" and "create" without analytical words: procedural wins.
		{"procedural beats creative", "create a step list", QuestionProcedural},
		// "suggest" and "better" without earlier matches: creative wins.
		{"creative beats comparative", "suggest a better name", QuestionCreative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyQuestion(tt.message)
			if got != tt.expected {
				t.Errorf("ClassifyQuestion(%q) = %q, want %q", tt.message, got, tt.expected)
			}
		})
	}
}

func TestClassifyQuestionDeterministic(t *testing.T) {
	t.Parallel()

	msg := "compare and evaluate the methods"
	first := ClassifyQuestion(msg)
	for i := 0; i < 5; i++ {
		if got := ClassifyQuestion(msg); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, got)
		}
	}
}
