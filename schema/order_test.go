package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTableKeysOrder(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    *TableKeysOrder
		wantErr bool
	}{
		{name: "single", in: "version-sort", want: &TableKeysOrder{All: VersionSort}},
		{
			name: "groups",
			in: Object{
				{Key: "properties", Value: "schema"},
				{Key: "additionalProperties", Value: "ascending"},
			},
			want: &TableKeysOrder{Groups: []GroupOrder{
				{Target: PropertiesGroup, Order: SchemaOrder},
				{Target: AdditionalPropertiesGroup, Order: Ascending},
			}},
		},
		{name: "schema additional", in: Object{{Key: "additionalProperties", Value: "schema"}}, wantErr: true},
		{name: "bad group", in: Object{{Key: "keys", Value: "ascending"}}, wantErr: true},
		{name: "bad order", in: "random", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTableKeysOrder(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSchema) {
					t.Errorf("got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArrayValuesOrder(t *testing.T) {
	got, err := parseArrayValuesOrder(Object{{Key: "oneOf", Value: []any{"ascending", "version-sort"}}})
	if err != nil {
		t.Fatal(err)
	}
	want := &ArrayValuesOrder{Groups: []KeysOrder{Ascending, VersionSort}, Composition: OneOfType}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := parseArrayValuesOrder("schema"); err == nil {
		t.Error("schema order is not an array order")
	}
	var o KeysOrder
	if err := o.UnmarshalText([]byte("descending")); err != nil || o != Descending {
		t.Errorf("got %v, %v", o, err)
	}
}
