package pages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/repository"
)

// Level is the severity of a page message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a notice shown above a page's content.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Table is a rendered grid of rows.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Session is set on a view when the page started a login session.
type Session struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NavItem is one sidebar entry.
type NavItem struct {
	Title  string `json:"title"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// View is everything a page renders.
type View struct {
	Page     string     `json:"page"`
	Title    string     `json:"title"`
	Intro    []string   `json:"intro,omitempty"`
	Messages []Message  `json:"messages"`
	Table    *Table     `json:"table,omitempty"`
	Map      *geo.Route `json:"map,omitempty"`
	Image    string     `json:"image,omitempty"`
	Session  *Session   `json:"session,omitempty"`
	Nav      []NavItem  `json:"nav"`
	Form     []Field    `json:"-"`
}

// Field is one input of a page form.
type Field struct {
	Name  string
	Label string
	Type  string
	Value string
}

func newView(page, title string) View {
	return View{Page: page, Title: title, Messages: []Message{}}
}

func (v *View) add(level Level, format string, args ...any) {
	v.Messages = append(v.Messages, Message{Level: level, Text: fmt.Sprintf(format, args...)})
}

func (v *View) skipped(mre *repository.MalformedRowsError) {
	if mre == nil || len(mre.Rows) == 0 {
		return
	}
	lines := make([]string, 0, len(mre.Rows))
	for _, r := range mre.Rows {
		lines = append(lines, strconv.Itoa(r.Line))
	}
	v.add(LevelWarning, "Skipped %d malformed row(s) in %s at line(s) %s.", len(mre.Rows), mre.Table, strings.Join(lines, ", "))
}

var rideColumns = []string{"ride_id", "origin", "destination", "date", "time", "seats_available", "price", "vehicle", "status"}

func ridesTable(rides []domain.Ride) *Table {
	t := &Table{Columns: rideColumns, Rows: make([][]string, 0, len(rides))}
	for _, r := range rides {
		t.Rows = append(t.Rows, []string{
			r.ID, r.Origin, r.Destination, r.Date, r.Time,
			strconv.Itoa(r.SeatsAvailable),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Vehicle, string(r.Status),
		})
	}
	return t
}

func reviewsTable(rides []domain.Ride) *Table {
	t := &Table{Columns: []string{"ride_id", "origin", "destination", "date", "review"}, Rows: [][]string{}}
	for _, r := range rides {
		if r.Review == "" {
			continue
		}
		t.Rows = append(t.Rows, []string{r.ID, r.Origin, r.Destination, r.Date, r.Review})
	}
	return t
}
