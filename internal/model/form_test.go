package model

import "testing"

func TestFormStateWith(t *testing.T) {
	cases := []struct {
		name string
		in   FormState
		upd  FieldUpdate
		want FormState
	}{
		{"name", FormState{}, FieldUpdate{FieldName, "Milk"}, FormState{Name: "Milk"}},
		{"description", FormState{Name: "Milk"}, FieldUpdate{FieldDescription, "2L"}, FormState{Name: "Milk", Description: "2L"}},
		{"overwrite", FormState{Name: "a", Description: "b"}, FieldUpdate{FieldName, "c"}, FormState{Name: "c", Description: "b"}},
		{"unknown field", FormState{Name: "a"}, FieldUpdate{Field(42), "x"}, FormState{Name: "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.With(tc.upd)
			if got != tc.want {
				t.Fatalf("With(%v)=%+v, want %+v", tc.upd, got, tc.want)
			}
		})
	}
}

func TestFormStateWithDoesNotMutateReceiver(t *testing.T) {
	f := FormState{Name: "a"}
	_ = f.With(FieldUpdate{FieldName, "b"})
	if f.Name != "a" {
		t.Fatalf("receiver mutated: %+v", f)
	}
}

func TestFormStateComplete(t *testing.T) {
	if (FormState{Name: "a"}).Complete() {
		t.Fatalf("missing description should be incomplete")
	}
	if (FormState{Description: "b"}).Complete() {
		t.Fatalf("missing name should be incomplete")
	}
	if !(FormState{Name: "a", Description: "b"}).Complete() {
		t.Fatalf("expected complete")
	}
}

func TestTodoHasID(t *testing.T) {
	if (Todo{Name: "x"}).HasID() {
		t.Fatalf("optimistic todo should not have an id")
	}
	if !(Todo{ID: "1"}).HasID() {
		t.Fatalf("expected id")
	}
}
