package version

import (
	"errors"
	"testing"
)

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		input    string
		wantKind Kind
		wantErr  bool
	}{
		{"latest", KindLatest, false},
		{"LATEST", KindLatest, false},
		{"", KindLatest, false},
		{"  latest  ", KindLatest, false},
		{"1.2.3", KindExact, false},
		{"0.1.0-rc.1", KindExact, false},
		{"v1.0.0", KindExact, false},
		{" v2.3.4-beta.1 ", KindExact, false},
		{"^1.0", KindRequirement, false},
		{"~1.2", KindRequirement, false},
		{">=1.0.0, <2.0.0", KindRequirement, false},
		{"=1.2.3", KindRequirement, false},
		{"1.2", KindRequirement, false},
		{"^1.0 || ^2.0", KindRequirement, false},
		{"not a version!!", KindLatest, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConstraint(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConstraint(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConstraint) {
					t.Errorf("error = %v, want ErrInvalidConstraint", err)
				}
				return
			}
			if got.Kind() != tt.wantKind {
				t.Errorf("ParseConstraint(%q).Kind() = %v, want %v", tt.input, got.Kind(), tt.wantKind)
			}
		})
	}
}

func TestParseConstraintExactWithV(t *testing.T) {
	withV, err := ParseConstraint("v1.0.0")
	if err != nil {
		t.Fatalf("ParseConstraint(v1.0.0) error = %v", err)
	}
	plain, err := ParseConstraint("1.0.0")
	if err != nil {
		t.Fatalf("ParseConstraint(1.0.0) error = %v", err)
	}

	got, ok := withV.Pinned()
	if !ok {
		t.Fatalf("ParseConstraint(v1.0.0).Kind() = %v, want exact", withV.Kind())
	}
	want, _ := plain.Pinned()
	if !got.Equal(want) {
		t.Errorf("Pinned() = %v, want %v", got, want)
	}
	if withV.String() != plain.String() {
		t.Errorf("String() = %q, want %q", withV.String(), plain.String())
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"latest", "0.0.1", true},
		{"latest", "3.0.0-beta", true},
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "1.2.3+build", true},
		{"1.2.3", "1.2.4", false},
		{"^1.0", "0.9.0", false},
		{"^1.0", "1.0.0", true},
		{"^1.0", "1.5.0", true},
		{"^1.0", "2.0.0", false},
		{"^1.0", "1.5.0-beta", false},
		{"~1.2", "1.2.9", true},
		{"~1.2", "1.3.0", false},
		{">=1.0.0, <2.0.0", "1.9.9", true},
		{">=1.0.0, <2.0.0", "2.0.0", false},
		{"^1.0 || ^3.0", "3.1.0", true},
		{"^1.0 || ^3.0", "2.1.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"/"+tt.version, func(t *testing.T) {
			c, err := ParseConstraint(tt.constraint)
			if err != nil {
				t.Fatalf("ParseConstraint(%q) error = %v", tt.constraint, err)
			}
			if got := Satisfies(MustParse(tt.version), c); got != tt.want {
				t.Errorf("Satisfies(%s, %s) = %v, want %v", tt.version, tt.constraint, got, tt.want)
			}
		})
	}
}

func TestSatisfiesZeroVersion(t *testing.T) {
	if Satisfies(Version{}, Latest()) {
		t.Error("zero Version must not satisfy any constraint")
	}
}

func TestConstraintAccessors(t *testing.T) {
	c := Exact(MustParse("2.1.0"))

	pinned, ok := c.Pinned()
	if !ok || pinned.String() != "2.1.0" {
		t.Errorf("Pinned() = %v, %v", pinned, ok)
	}
	if c.String() != "2.1.0" {
		t.Errorf("String() = %q", c.String())
	}

	if _, ok := Latest().Pinned(); ok {
		t.Error("Latest should not be pinned")
	}

	var zero Constraint
	if zero.Kind() != KindLatest || zero.String() != "latest" {
		t.Errorf("zero Constraint = %v/%q, want latest", zero.Kind(), zero.String())
	}

	if KindRequirement.String() != "requirement" || KindExact.String() != "exact" {
		t.Error("unexpected Kind strings")
	}
}
