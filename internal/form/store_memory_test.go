package form

import (
	"context"
	"errors"
	"testing"
)

func TestStoreInsertResponseConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}

	if err := store.InsertResponse(ctx, Response{ID: "r1", FormID: "f1", SubmittedAt: 10}, "user:u1"); err != nil {
		t.Fatal(err)
	}
	err := store.InsertResponse(ctx, Response{ID: "r2", FormID: "f1", SubmittedAt: 11}, "user:u1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	// empty key never conflicts
	for _, id := range []string{"r3", "r4"} {
		if err := store.InsertResponse(ctx, Response{ID: id, FormID: "f1", SubmittedAt: 12}, ""); err != nil {
			t.Fatalf("%s: %v", id, err)
		}
	}
}

func TestStoreStatsAccumulation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}
	for _, q := range []Question{
		{ID: "q1", FormID: "f1", Kind: KindShortText},
		{ID: "q2", FormID: "f1", Kind: KindShortText},
	} {
		if err := store.PutQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	s1, s2 := 8.0, 4.0
	inserts := []Response{
		{ID: "r1", FormID: "f1", Score: &s1, Answers: []Answer{{QuestionID: "q1"}, {QuestionID: "q2"}}, SubmittedAt: 100},
		{ID: "r2", FormID: "f1", Score: &s2, Answers: []Answer{{QuestionID: "q1"}}, SubmittedAt: 200},
		{ID: "r3", FormID: "f1", Answers: []Answer{{QuestionID: "q1"}}, SubmittedAt: 150}, // unscored
	}
	for _, r := range inserts {
		if err := store.InsertResponse(ctx, r, ""); err != nil {
			t.Fatal(err)
		}
	}

	st, err := store.GetStats(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalResponses != 3 {
		t.Fatalf("total: %d", st.TotalResponses)
	}
	// average over scored responses only
	if st.AvgScore == nil || *st.AvgScore != 6 {
		t.Fatalf("avg: %v", st.AvgScore)
	}
	// (2/2 + 1/2 + 1/2) / 3
	if st.CompletionRate == nil || *st.CompletionRate < 0.66 || *st.CompletionRate > 0.67 {
		t.Fatalf("completion: %v", st.CompletionRate)
	}
	if st.LastSubmittedAt != 200 {
		t.Fatalf("last: %d", st.LastSubmittedAt)
	}
}

func TestStoreStatsEmptyForm(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}
	st, err := store.GetStats(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalResponses != 0 || st.AvgScore != nil || st.CompletionRate != nil {
		t.Fatalf("fresh stats: %+v", st)
	}
	if _, err := store.GetStats(ctx, "nope"); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("missing form: %v", err)
	}
}

func TestStoreReorderQuestions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"a", "b", "c"} {
		if err := store.PutQuestion(ctx, Question{ID: id, FormID: "f1", Kind: KindShortText, Order: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.ReorderQuestions(ctx, "f1", []string{"c", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	qs, err := store.ListQuestions(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	got := []string{qs[0].ID, qs[1].ID, qs[2].ID}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("order: %v", got)
	}
	if err := store.ReorderQuestions(ctx, "f1", []string{"zz"}); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("foreign id: %v", err)
	}
}

func TestStoreDeleteFormCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutQuestion(ctx, Question{ID: "q1", FormID: "f1", Kind: KindShortText}); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertResponse(ctx, Response{ID: "r1", FormID: "f1", SubmittedAt: 1}, "user:u1"); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteForm(ctx, "f1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetQuestion(ctx, "q1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("question survived: %v", err)
	}
	if _, err := store.GetResponse(ctx, "r1"); !errors.Is(err, ErrResponseNotFound) {
		t.Fatalf("response survived: %v", err)
	}
	if _, err := store.GetStats(ctx, "f1"); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("stats survived: %v", err)
	}
}

func TestStorePagination(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.PutForm(ctx, Form{ID: "f1"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		r := Response{ID: string(rune('a' + i)), FormID: "f1", SubmittedAt: int64(i)}
		if err := store.InsertResponse(ctx, r, ""); err != nil {
			t.Fatal(err)
		}
	}
	page, err := store.ListResponses(ctx, "f1", ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("page size: %d", len(page))
	}
	// newest first: offset 1 of [4,3,2,1,0] is [3,2]
	if page[0].SubmittedAt != 3 || page[1].SubmittedAt != 2 {
		t.Fatalf("page order: %v %v", page[0].SubmittedAt, page[1].SubmittedAt)
	}
}
