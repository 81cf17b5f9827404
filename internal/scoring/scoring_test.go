package scoring

import (
	"reflect"
	"testing"
)

func key4() Key {
	return Key{1: 0, 2: 1, 3: 2, 4: 3}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		answers      map[uint]int
		key          Key
		wantScore    int
		wantCorrect  int
		wantTotal    int
		wantErr      bool
	}{
		{name: "three of four correct", answers: map[uint]int{1: 0, 2: 1, 3: 0, 4: 3}, key: key4(), wantScore: 75, wantCorrect: 3, wantTotal: 4},
		{name: "all correct", answers: map[uint]int{1: 0, 2: 1, 3: 2, 4: 3}, key: key4(), wantScore: 100, wantCorrect: 4, wantTotal: 4},
		{name: "empty submission", answers: map[uint]int{}, key: key4(), wantScore: 0, wantCorrect: 0, wantTotal: 4},
		{name: "nil submission", answers: nil, key: key4(), wantScore: 0, wantCorrect: 0, wantTotal: 4},
		{name: "missing answers count as wrong", answers: map[uint]int{1: 0}, key: key4(), wantScore: 25, wantCorrect: 1, wantTotal: 4},
		{name: "extra answers ignored", answers: map[uint]int{1: 0, 99: 2}, key: key4(), wantScore: 25, wantCorrect: 1, wantTotal: 4},
		{name: "round half up", answers: map[uint]int{1: 0}, key: Key{1: 0, 2: 1, 3: 2}, wantScore: 33, wantCorrect: 1, wantTotal: 3},
		{name: "two thirds rounds up", answers: map[uint]int{1: 0, 2: 1}, key: Key{1: 0, 2: 1, 3: 2}, wantScore: 67, wantCorrect: 2, wantTotal: 3},
		{name: "exact half rounds up", answers: map[uint]int{1: 0, 2: 1, 3: 2}, key: Key{1: 0, 2: 1, 3: 2, 4: 3, 5: 0, 6: 1, 7: 2, 8: 3}, wantScore: 38, wantCorrect: 3, wantTotal: 8},
		{name: "empty key", answers: map[uint]int{1: 0}, key: Key{}, wantErr: true},
		{name: "nil key", answers: nil, key: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.answers, tt.key)
			if tt.wantErr {
				if err != ErrEmptyAnswerKey {
					t.Fatalf("Score() error = %v, want ErrEmptyAnswerKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Score() unexpected error: %v", err)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.CorrectCount != tt.wantCorrect {
				t.Errorf("CorrectCount = %d, want %d", got.CorrectCount, tt.wantCorrect)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
		})
	}
}

// Score stays within [0, 100] for arbitrary submissions.
func TestScoreBounds(t *testing.T) {
	key := Key{}
	for i := uint(1); i <= 37; i++ {
		key[i] = int(i % 4)
	}

	answers := map[uint]int{}
	for i := uint(1); i <= 37; i++ {
		answers[i] = int((i + 1) % 4)
		got, err := Score(answers, key)
		if err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score %d out of bounds", got.Score)
		}
	}
}

// Correcting one wrong answer never decreases the score.
func TestScoreMonotonic(t *testing.T) {
	key := key4()
	answers := map[uint]int{1: 1, 2: 2, 3: 3, 4: 0} // all wrong

	prev := 0
	for id, correctIndex := range key {
		answers[id] = correctIndex
		got, err := Score(answers, key)
		if err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if got.Score < prev {
			t.Fatalf("score decreased from %d to %d after correcting question %d", prev, got.Score, id)
		}
		prev = got.Score
	}
	if prev != 100 {
		t.Fatalf("final score = %d, want 100", prev)
	}
}

func TestScoreDeterministic(t *testing.T) {
	answers := map[uint]int{1: 0, 2: 1, 3: 0, 4: 3}
	first, err := Score(answers, key4())
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	second, err := Score(answers, key4())
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Score() not deterministic: %+v vs %+v", first, second)
	}
}

func TestDecodeAnswers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[uint]int
		wantErr bool
	}{
		{name: "object", raw: `{"1":0,"2":3}`, want: map[uint]int{1: 0, 2: 3}},
		{name: "empty object", raw: `{}`, want: map[uint]int{}},
		{name: "empty payload", raw: ``, want: map[uint]int{}},
		{name: "null", raw: `null`, want: map[uint]int{}},
		{name: "malformed", raw: `{"1":`, wantErr: true},
		{name: "wrong shape", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAnswers([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeAnswers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeAnswers() = %v, want %v", got, tt.want)
			}
		})
	}
}
