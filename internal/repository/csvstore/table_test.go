package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const ridesHeader = "ride_id,user_id,origin,destination,date,time,seats_available,price,vehicle,status,review,created_at\n"

func TestRideStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewRideStore(NewFileBacking(filepath.Join(t.TempDir(), "nope", RidesFile)))
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("List()=%v, want empty non-nil slice", got)
	}
}

func TestRideStore_MalformedRowsAreWarningsAndSurviveRewrite(t *testing.T) {
	t.Parallel()

	data := ridesHeader +
		"r1,u1,pune,mumbai,2025-03-01,09:30,3,500,,Available,,\n" +
		"r2,u1,pune,mumbai,2025-03-01,09:30,three,500,,Available,,\n" +
		"r3,u1,delhi,pune,2025-03-02,10:00,2,abc,,Available,,\n" +
		"r4,u2,chennai,bangalore,2025-03-03,07:15,1,250.5,Innova,Booked,,\n"
	b := NewMemoryBackingFrom([]byte(data))
	s := NewRideStore(b)
	ctx := context.Background()

	got, err := s.List(ctx)
	mre, rest := repository.SplitMalformed(err)
	if rest != nil {
		t.Fatalf("List() fatal err=%v", rest)
	}
	if mre == nil || len(mre.Rows) != 2 {
		t.Fatalf("List() malformed=%v, want 2 rows", err)
	}
	if mre.Rows[0].Line != 3 || mre.Rows[1].Line != 4 {
		t.Fatalf("malformed lines=%d,%d want 3,4", mre.Rows[0].Line, mre.Rows[1].Line)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r4" {
		t.Fatalf("List() rows=%+v", got)
	}
	if got[1].Price != 250.5 || got[1].Status != domain.RideStatusBooked {
		t.Fatalf("r4 decoded as %+v", got[1])
	}

	if _, err := s.Update(ctx, repository.RideByID("r1"), func(r *domain.Ride) {
		r.Status = domain.RideStatusBooked
	}, repository.First); err != nil {
		t.Fatalf("Update() err=%v", err)
	}

	written := string(b.Bytes())
	if !strings.Contains(written, "r2,u1,pune,mumbai,2025-03-01,09:30,three,500,,Available,,") {
		t.Fatalf("malformed row r2 lost on rewrite:\n%s", written)
	}
	if !strings.Contains(written, "r1,u1,pune,mumbai,2025-03-01,09:30,3,500,,Booked,,") {
		t.Fatalf("r1 not updated:\n%s", written)
	}
}

func TestRideStore_BareQuoteRowSurvivesAppend(t *testing.T) {
	t.Parallel()

	data := ridesHeader +
		"r1,u1,pune,mumbai,2025-03-01,09:30,3,500,Swift \"red\" car,Available,,\n" +
		"r2,u1,delhi,pune,2025-03-02,10:00,2,300,,Available,,\n"
	b := NewMemoryBackingFrom([]byte(data))
	s := NewRideStore(b)
	ctx := context.Background()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(got) != 2 || got[0].Vehicle != `Swift "red" car` {
		t.Fatalf("List() rows=%+v", got)
	}

	r3 := domain.Ride{ID: "r3", Origin: "chennai", Destination: "pune", SeatsAvailable: 1, Price: 100, Status: domain.RideStatusAvailable}
	if err := s.Append(ctx, r3); err != nil {
		t.Fatalf("Append() err=%v", err)
	}

	got, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List() after Append err=%v", err)
	}
	if len(got) != 3 || got[0].ID != "r1" || got[1].ID != "r2" || got[2].ID != "r3" {
		t.Fatalf("List() after Append=%+v\nfile:\n%s", got, b.Bytes())
	}
	if got[0].Vehicle != `Swift "red" car` {
		t.Fatalf("r1 vehicle=%q after rewrite", got[0].Vehicle)
	}
}

func TestRideStore_MissingStatusColumnDefaultsToAvailable(t *testing.T) {
	t.Parallel()

	data := "ride_id,user_id,origin,destination,date,time,price,vehicle,seats_available\n" +
		"r1,u1,Pune,Mumbai,2025-03-01,09:30,500,Swift,3\n"
	b := NewMemoryBackingFrom([]byte(data))
	s := NewRideStore(b)
	ctx := context.Background()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(got) != 1 || got[0].Status != domain.RideStatusAvailable || got[0].SeatsAvailable != 3 {
		t.Fatalf("List()=%+v", got)
	}

	if _, err := s.Update(ctx, repository.RideByID("r1"), func(r *domain.Ride) {
		r.Status = domain.RideStatusBooked
	}, repository.First); err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	if written := string(b.Bytes()); !strings.HasPrefix(written, ridesHeader) || !strings.Contains(written, ",Booked,") {
		t.Fatalf("rewrite did not upgrade the header:\n%s", written)
	}
}

func TestRideStore_BadHeader(t *testing.T) {
	t.Parallel()

	s := NewRideStore(NewMemoryBackingFrom([]byte("user,origin,destination,time,seats,price,status\n")))
	_, err := s.List(context.Background())
	if !errors.Is(err, repository.ErrBadHeader) {
		t.Fatalf("List() err=%v, want %v", err, repository.ErrBadHeader)
	}
	if !strings.Contains(err.Error(), "ride_id") {
		t.Fatalf("err=%q should name the missing column", err)
	}
}

func TestRideStore_HeaderOnlyAndColumnOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewRideStore(NewMemoryBackingFrom([]byte(ridesHeader)))
	got, err := s.List(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("List(header only)=%v err=%v", got, err)
	}

	reordered := "status,price,seats_available,destination,origin,ride_id\nAvailable,99,4,Kolkata,Delhi,x1\n"
	s = NewRideStore(NewMemoryBackingFrom([]byte(reordered)))
	got, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List(reordered) err=%v", err)
	}
	if len(got) != 1 || got[0].Origin != "Delhi" || got[0].Destination != "Kolkata" || got[0].SeatsAvailable != 4 {
		t.Fatalf("List(reordered)=%+v", got)
	}
}

func TestFileBacking_ReplaceLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewRideStore(NewFileBacking(filepath.Join(dir, RidesFile)))
	ride := domain.Ride{ID: "r1", Origin: "pune", Destination: "mumbai", SeatsAvailable: 3, Price: 500, Status: domain.RideStatusAvailable}
	if err := s.Append(context.Background(), ride); err != nil {
		t.Fatalf("Append() err=%v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != RidesFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir contents=%v, want [%s]", names, RidesFile)
	}

	raw, err := os.ReadFile(filepath.Join(dir, RidesFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(raw), ridesHeader) {
		t.Fatalf("file does not start with header:\n%s", raw)
	}
}

type countingLocker struct {
	mu    sync.Mutex
	names []string
	held  int
}

func (l *countingLocker) Lock(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	l.names = append(l.names, name)
	l.held++
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.held--
		l.mu.Unlock()
	}, nil
}

func TestTable_MutationsHoldLocker(t *testing.T) {
	t.Parallel()

	l := &countingLocker{}
	st := NewMemory(WithLocker(l))
	ctx := context.Background()

	if err := st.Rides.Append(ctx, domain.Ride{ID: "r1", Origin: "a", Destination: "b", SeatsAvailable: 1, Status: domain.RideStatusAvailable}); err != nil {
		t.Fatalf("Append() err=%v", err)
	}
	if _, err := st.Rides.List(ctx); err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if err := st.Users.Create(ctx, domain.User{ID: "u1", Email: "a@b.c"}); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	if len(l.names) != 2 || l.names[0] != "offer_ride" || l.names[1] != "users" {
		t.Fatalf("lock names=%v, want [offer_ride users]", l.names)
	}
	if l.held != 0 {
		t.Fatalf("locks still held: %d", l.held)
	}
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("busy")
}

func TestTable_LockFailureAbortsWrite(t *testing.T) {
	t.Parallel()

	b := NewMemoryBacking()
	s := NewRideStore(b, WithLocker(failingLocker{}))
	err := s.Append(context.Background(), domain.Ride{ID: "r1", SeatsAvailable: 1, Status: domain.RideStatusAvailable})
	if err == nil {
		t.Fatalf("Append() err=nil, want lock failure")
	}
	if len(b.Bytes()) != 0 {
		t.Fatalf("table written despite lock failure")
	}
}
