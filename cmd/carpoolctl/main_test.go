package main

import (
	"bytes"
	"strings"
	"testing"

	"carpool/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	c := &cli{maps: service.NewMapService()}
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCities(t *testing.T) {
	out, err := run(t, "cities")
	if err != nil {
		t.Fatalf("cities err=%v", err)
	}
	for _, city := range []string{"hyderabad", "mumbai", "delhi", "bangalore", "chennai", "kolkata", "pune"} {
		if !strings.Contains(out, city) {
			t.Errorf("cities output missing %q:\n%s", city, out)
		}
	}
}

func TestMap(t *testing.T) {
	out, err := run(t, "map", "Delhi", "Mumbai")
	if err != nil {
		t.Fatalf("map err=%v", err)
	}
	if !strings.Contains(out, `"zoom": 6`) || !strings.Contains(out, "Delhi (Start)") {
		t.Fatalf("unexpected map output:\n%s", out)
	}

	if _, err := run(t, "map", "Gotham", "Mumbai"); err == nil {
		t.Fatal("map with unknown city succeeded")
	}
	if _, err := run(t, "map", "Delhi"); err == nil {
		t.Fatal("map with one city succeeded")
	}
}

func TestRides_OfferThenSearchInCSVDir(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--dir", dir, "rides", "offer", "Pune", "Mumbai", "--date", "2025-02-01", "--time", "09:00", "--seats", "3", "--price", "350")
	if err != nil {
		t.Fatalf("offer err=%v", err)
	}
	if !strings.Contains(out, "Ride Offered Successfully! Ride ID: ") {
		t.Fatalf("offer output:\n%s", out)
	}

	out, err = run(t, "--dir", dir, "rides", "search", "pune", "mumbai")
	if err != nil {
		t.Fatalf("search err=%v", err)
	}
	if !strings.Contains(out, "Pune") || !strings.Contains(out, "Available") {
		t.Fatalf("search output:\n%s", out)
	}

	out, err = run(t, "--dir", dir, "rides", "search", "pu", "mum", "--contains")
	if err != nil || !strings.Contains(out, "Pune") {
		t.Fatalf("contains search err=%v output:\n%s", err, out)
	}

	out, err = run(t, "--dir", dir, "rides", "search", "pune", "delhi")
	if err != nil || !strings.Contains(out, "No rides available for this route.") {
		t.Fatalf("no-match search err=%v output:\n%s", err, out)
	}
}

func TestRides_ReviewRejectsBadRating(t *testing.T) {
	_, err := run(t, "--backend", "memory", "rides", "review", "some-id", "five")
	if err != service.ErrInvalidRating {
		t.Fatalf("err=%v, want %v", err, service.ErrInvalidRating)
	}
}
