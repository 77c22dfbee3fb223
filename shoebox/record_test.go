package shoebox

import "testing"

func TestMetadataPreservesInsertionOrder(t *testing.T) {
	m := NewMetadata()
	m.Set("z", "1")
	m.Set("a", "2")
	m.Set("m", "3")

	var keys []string
	m.Range(func(k, v string) { keys = append(keys, k) })

	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestMetadataSetOverwritesInPlace(t *testing.T) {
	m := NewMetadata()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("a", "3")

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	v, ok := m.Get("a")
	if !ok || v != "3" {
		t.Fatalf("Get(a) = %q,%v, want 3,true", v, ok)
	}

	var keys []string
	m.Range(func(k, v string) { keys = append(keys, k) })
	if keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("overwrite changed insertion order: %v", keys)
	}
}

func TestMetadataGetMissing(t *testing.T) {
	m := NewMetadata()
	if _, ok := m.Get("nope"); ok {
		t.Fatalf("Get on missing key returned ok=true")
	}
}

func TestMetadataEqual(t *testing.T) {
	a := NewMetadata()
	a.Set("k", "v")
	b := NewMetadata()
	b.Set("k", "v")
	if !a.Equal(b) {
		t.Fatalf("expected equal metadata")
	}

	c := NewMetadata()
	c.Set("k", "other")
	if a.Equal(c) {
		t.Fatalf("expected unequal metadata")
	}

	if !NewMetadata().Equal(nil) {
		t.Fatalf("two empty metadata sets (one nil) should be equal")
	}
}
