// Package pages renders the carpool pages as plain data. Each page reads the
// submitted form, calls the services, and returns a View; serving the view as
// HTML or JSON is left to the HTTP layer.
package pages

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"carpool/internal/geo"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// Page names, also used as template keys.
const (
	PageHome     = "home"
	PageRegister = "register"
	PageLogin    = "login"
	PageBook     = "book"
	PageOffer    = "offer"
	PageReviews  = "reviews"
)

// LogoURL is where the home page image is served from.
const LogoURL = "/static/logo.jpg"

const invalidCityMessage = "Invalid city name. Please enter a major city from the list."

// Services are the dependencies pages call into.
type Services struct {
	Rides    *service.RideService
	Users    *service.UserService
	Maps     *service.MapService
	LogoPath string // file backing LogoURL
}

// Request is one page visit.
type Request struct {
	Form      url.Values
	Submitted bool   // the form was posted
	UserID    string // from the session, may be empty
}

// Handler renders one page.
type Handler func(ctx context.Context, svc *Services, req Request) View

// Route ties a page to its path and sidebar title.
type Route struct {
	Name    string
	Title   string
	Path    string
	Handler Handler
}

// Routes lists the pages in sidebar order.
var Routes = []Route{
	{PageHome, "Home", "/", Home},
	{PageRegister, "Register", "/register", Register},
	{PageLogin, "Login", "/login", Login},
	{PageBook, "Book a Ride", "/book", Book},
	{PageOffer, "Offer a Ride", "/offer", Offer},
	{PageReviews, "Reviews", "/reviews", Reviews},
}

// Nav returns the sidebar with active marked.
func Nav(active string) []NavItem {
	nav := make([]NavItem, 0, len(Routes))
	for _, r := range Routes {
		nav = append(nav, NavItem{Title: r.Title, Path: r.Path, Active: r.Name == active})
	}
	return nav
}

func field(req Request, name string) string {
	return strings.TrimSpace(req.Form.Get(name))
}

// Home shows the welcome text and logo. A missing logo is reported, not fatal.
func Home(_ context.Context, svc *Services, _ Request) View {
	v := newView(PageHome, "Carpooling App")
	v.Intro = []string{
		"Welcome to the Carpooling App! Find or offer rides easily.",
		"Offer a ride to help others and split travel costs.",
		"Book a ride easily from available options.",
	}
	if svc.LogoPath == "" {
		v.add(LevelWarning, "Logo image not available.")
		return v
	}
	if info, err := os.Stat(svc.LogoPath); err != nil || info.IsDir() {
		v.add(LevelWarning, "Logo image not available.")
		return v
	}
	v.Image = LogoURL
	return v
}

// Register creates an account and reports the new user id.
func Register(ctx context.Context, svc *Services, req Request) View {
	v := newView(PageRegister, "Register")
	v.Form = []Field{
		{Name: "name", Label: "Full Name", Type: "text", Value: field(req, "name")},
		{Name: "email", Label: "Email", Type: "email", Value: field(req, "email")},
		{Name: "phone", Label: "Phone Number", Type: "tel", Value: field(req, "phone")},
		{Name: "password", Label: "Password", Type: "password"},
		{Name: "vehicle", Label: "Car Model (Optional)", Type: "text", Value: field(req, "vehicle")},
		{Name: "seats", Label: "Seats Available in Car (if offering rides)", Type: "number", Value: field(req, "seats")},
	}
	if !req.Submitted {
		return v
	}

	seats := 0
	if s := field(req, "seats"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			v.add(LevelError, "Seats must be a whole number.")
			return v
		}
		seats = n
	}

	user, err := svc.Users.Register(ctx, service.RegisterRequest{
		Name:     field(req, "name"),
		Email:    field(req, "email"),
		Phone:    field(req, "phone"),
		Password: req.Form.Get("password"),
		Vehicle:  field(req, "vehicle"),
		Seats:    seats,
	})
	if err != nil {
		v.add(LevelError, "%s", userFacing(err))
		return v
	}
	v.add(LevelSuccess, "Registration Successful! Your User ID: %s", user.ID)
	return v
}

// Login checks credentials and starts a session.
func Login(ctx context.Context, svc *Services, req Request) View {
	v := newView(PageLogin, "Login")
	v.Form = []Field{
		{Name: "email", Label: "Email", Type: "email", Value: field(req, "email")},
		{Name: "password", Label: "Password", Type: "password"},
	}
	if !req.Submitted {
		return v
	}

	resp, err := svc.Users.Login(ctx, field(req, "email"), req.Form.Get("password"))
	if err != nil {
		v.add(LevelError, "%s", userFacing(err))
		return v
	}
	v.Session = &Session{UserID: resp.User.ID, Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	v.add(LevelSuccess, "Welcome back, %s!", resp.User.Name)
	return v
}

// Book searches rides on a route and books the selected one.
func Book(ctx context.Context, svc *Services, req Request) View {
	v := newView(PageBook, "Book a Ride")
	origin, destination, date := field(req, "origin"), field(req, "destination"), field(req, "date")
	rideID := field(req, "ride_id")
	v.Form = []Field{
		{Name: "origin", Label: "From (Origin)", Type: "text", Value: origin},
		{Name: "destination", Label: "To (Destination)", Type: "text", Value: destination},
		{Name: "date", Label: "Travel Date", Type: "date", Value: date},
		{Name: "ride_id", Label: "Ride ID to book", Type: "text"},
	}

	if req.Submitted && rideID != "" {
		resp, err := svc.Rides.BookRide(ctx, service.BookRideRequest{RideID: rideID, UserID: req.UserID})
		switch {
		case err == nil:
			v.add(LevelSuccess, "Ride %s booked successfully!", resp.Ride.ID)
			if origin == "" && destination == "" {
				origin, destination = resp.Ride.Origin, resp.Ride.Destination
			}
		case errors.Is(err, repository.ErrNotFound):
			v.add(LevelInfo, "No ride found with ID %s.", rideID)
		case errors.Is(err, service.ErrRideAlreadyBooked):
			v.add(LevelWarning, "Ride %s is already booked.", rideID)
		default:
			v.add(LevelError, "%s", userFacing(err))
		}
	}

	if origin != "" && destination != "" {
		list, err := svc.Rides.SearchRides(ctx, service.SearchRidesRequest{Origin: origin, Destination: destination, Date: date})
		if err != nil {
			v.add(LevelError, "%s", userFacing(err))
		} else {
			v.skipped(list.Skipped)
			if len(list.Rides) == 0 {
				v.add(LevelInfo, "No rides available for this route.")
			} else {
				v.Table = ridesTable(list.Rides)
			}
		}
	} else if req.Submitted && rideID == "" {
		v.add(LevelError, "%s", userFacing(service.ErrMissingRoute))
	}

	v.Map = routeMap(svc, &v, origin, destination)
	return v
}

// Offer posts a new ride and draws its route.
func Offer(ctx context.Context, svc *Services, req Request) View {
	v := newView(PageOffer, "Offer a Ride")
	origin, destination := field(req, "origin"), field(req, "destination")
	v.Form = []Field{
		{Name: "origin", Label: "Start Location", Type: "text", Value: origin},
		{Name: "destination", Label: "End Location", Type: "text", Value: destination},
		{Name: "date", Label: "Travel Date", Type: "date", Value: field(req, "date")},
		{Name: "time", Label: "Departure Time", Type: "time", Value: field(req, "time")},
		{Name: "seats", Label: "Available Seats", Type: "number", Value: field(req, "seats")},
		{Name: "price", Label: "Price per Seat (INR)", Type: "number", Value: field(req, "price")},
		{Name: "vehicle", Label: "Vehicle Details", Type: "text", Value: field(req, "vehicle")},
	}

	if req.Submitted {
		offerRide(ctx, svc, req, &v)
	}
	v.Map = routeMap(svc, &v, origin, destination)
	return v
}

func offerRide(ctx context.Context, svc *Services, req Request, v *View) {
	seats, err := strconv.Atoi(field(req, "seats"))
	if err != nil {
		v.add(LevelError, "%s", userFacing(service.ErrInvalidSeats))
		return
	}
	price, err := strconv.ParseFloat(field(req, "price"), 64)
	if err != nil {
		v.add(LevelError, "%s", userFacing(service.ErrInvalidPrice))
		return
	}

	ride, err := svc.Rides.OfferRide(ctx, service.OfferRideRequest{
		UserID:      req.UserID,
		Origin:      field(req, "origin"),
		Destination: field(req, "destination"),
		Date:        field(req, "date"),
		Time:        field(req, "time"),
		Seats:       seats,
		Price:       price,
		Vehicle:     field(req, "vehicle"),
	})
	if err != nil {
		v.add(LevelError, "%s", userFacing(err))
		return
	}
	v.add(LevelSuccess, "Ride Offered Successfully! Ride ID: %s", ride.ID)
}

// Reviews records a rating for a ride and lists reviewed rides.
func Reviews(ctx context.Context, svc *Services, req Request) View {
	v := newView(PageReviews, "Reviews & Ratings")
	v.Form = []Field{
		{Name: "ride_id", Label: "Enter Ride ID to Review", Type: "text", Value: field(req, "ride_id")},
		{Name: "rating", Label: "Rate the Ride (1-5)", Type: "number", Value: field(req, "rating")},
		{Name: "review", Label: "Write a Review", Type: "textarea"},
	}

	if req.Submitted {
		rideID := field(req, "ride_id")
		rating, err := strconv.Atoi(field(req, "rating"))
		if err != nil {
			v.add(LevelError, "%s", userFacing(service.ErrInvalidRating))
		} else {
			_, err := svc.Rides.ReviewRide(ctx, service.ReviewRideRequest{RideID: rideID, Rating: rating, Text: req.Form.Get("review")})
			switch {
			case err == nil:
				v.add(LevelSuccess, "Review Submitted!")
			case errors.Is(err, repository.ErrNotFound):
				v.add(LevelInfo, "No ride found with ID %s.", rideID)
			default:
				v.add(LevelError, "%s", userFacing(err))
			}
		}
	}

	list, err := svc.Rides.ListRides(ctx)
	if err != nil {
		v.add(LevelError, "%s", userFacing(err))
		return v
	}
	v.skipped(list.Skipped)
	v.Table = reviewsTable(list.Rides)
	return v
}

// routeMap draws the route when both cities are known and falls back to the
// national overview otherwise.
func routeMap(svc *Services, v *View, origin, destination string) *geo.Route {
	if origin == "" || destination == "" {
		overview := geo.Overview()
		return &overview
	}
	route, err := svc.Maps.Route(origin, destination)
	if err != nil {
		v.add(LevelWarning, invalidCityMessage)
		overview := geo.Overview()
		return &overview
	}
	return &route
}

// userFacing turns an error into sentence-cased text for a page message.
func userFacing(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Something went wrong."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
