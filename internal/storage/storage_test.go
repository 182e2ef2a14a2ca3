package storage

import (
	"bytes"
	"errors"
	"testing"
)

// both backends must behave identically for the operations the wallet uses.
func testDB(t *testing.T, db DB) {
	t.Helper()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get missing: error = %v, want ErrKeyNotFound", err)
	}

	if err := db.Put([]byte("a/1"), []byte("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Put([]byte("a/2"), []byte("two")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Put([]byte("b/1"), []byte("other")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := db.Get([]byte("a/1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("one")) {
		t.Errorf("Get = %q, want %q", got, "one")
	}

	ok, err := db.Has([]byte("a/2"))
	if err != nil || !ok {
		t.Errorf("Has(a/2) = %v, %v, want true", ok, err)
	}

	count := 0
	err = db.ForEach([]byte("a/"), func(key, value []byte) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if count != 2 {
		t.Errorf("ForEach visited %d keys under a/, want 2", count)
	}

	if err := db.Delete([]byte("a/1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get([]byte("a/1")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete: error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	defer inner.Close()

	p1 := NewPrefixDB(inner, []byte("one/"))
	p2 := NewPrefixDB(inner, []byte("two/"))

	if err := p1.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := p2.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatal(err)
	}

	got, err := p1.Get([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("p1 sees %q, want v1", got)
	}

	// ForEach strips the namespace prefix.
	err = p2.ForEach(nil, func(key, value []byte) error {
		if !bytes.Equal(key, []byte("k")) {
			t.Errorf("key = %q, want k", key)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
