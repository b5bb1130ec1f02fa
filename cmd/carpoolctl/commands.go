package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carpool/internal/domain"
	"carpool/internal/repository"
	"carpool/internal/service"
)

func (c *cli) ridesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every ride",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.rides.ListRides(cmd.Context())
			if err != nil {
				return err
			}
			printRides(cmd.OutOrStdout(), list.Rides)
			warnSkipped(cmd.ErrOrStderr(), list.Skipped)
			return nil
		},
	}
}

func (c *cli) ridesSearchCmd() *cobra.Command {
	var date string
	var contains bool

	cmd := &cobra.Command{
		Use:   "search ORIGIN DESTINATION",
		Short: "Find rides on a route",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.rides.SearchRides(cmd.Context(), service.SearchRidesRequest{
				Origin:      args[0],
				Destination: args[1],
				Date:        date,
				Contains:    contains,
			})
			if err != nil {
				return err
			}
			if len(list.Rides) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rides available for this route.")
			} else {
				printRides(cmd.OutOrStdout(), list.Rides)
			}
			warnSkipped(cmd.ErrOrStderr(), list.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only rides on this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&contains, "contains", false, "match cities by substring instead of exact name")
	return cmd
}

func (c *cli) ridesOfferCmd() *cobra.Command {
	var req service.OfferRideRequest

	cmd := &cobra.Command{
		Use:   "offer ORIGIN DESTINATION",
		Short: "Post a new ride",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Origin, req.Destination = args[0], args[1]
			ride, err := c.rides.OfferRide(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ride Offered Successfully! Ride ID: %s\n", ride.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Date, "date", "", "departure date (YYYY-MM-DD)")
	f.StringVar(&req.Time, "time", "", "departure time (HH:MM)")
	f.IntVar(&req.Seats, "seats", 1, "seats available")
	f.Float64Var(&req.Price, "price", 0, "price per seat")
	f.StringVar(&req.Vehicle, "vehicle", "", "car model")
	f.StringVar(&req.UserID, "user", "", "offering user id")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func (c *cli) ridesBookCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "book RIDE_ID",
		Short: "Book an available ride",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.rides.BookRide(cmd.Context(), service.BookRideRequest{RideID: args[0], UserID: userID})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ride %s booked successfully! Booking ID: %s\n", res.Ride.ID, res.Booking.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "booking user id")
	return cmd
}

func (c *cli) ridesReviewCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "review RIDE_ID RATING",
		Short: "Rate a ride from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return service.ErrInvalidRating
			}
			res, err := c.rides.ReviewRide(cmd.Context(), service.ReviewRideRequest{RideID: args[0], Rating: rating, Text: text})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review Submitted! %s (%d booking(s) updated)\n", res.Review, res.BookingsUpdated)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "review text")
	return cmd
}

func (c *cli) bookingsList(cmd *cobra.Command, _ []string) error {
	list, err := c.rides.ListBookings(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRIDE\tUSER\tFROM\tTO\tDATE\tTIME\tPRICE\tREVIEWS")
	for _, b := range list.Bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			b.ID, b.RideID, b.UserID, b.Origin, b.Destination, b.Date, b.Time, b.Price, b.Reviews)
	}
	w.Flush()
	warnSkipped(cmd.ErrOrStderr(), list.Skipped)
	return nil
}

func (c *cli) usersList(cmd *cobra.Command, _ []string) error {
	users, err := c.users.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tVEHICLE\tSEATS")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Email, u.Phone, u.Vehicle, u.Seats)
	}
	return w.Flush()
}

func (c *cli) mapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map [ORIGIN DESTINATION]",
		Short: "Print the map layout for a route as JSON",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("map takes no arguments or ORIGIN DESTINATION")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var origin, destination string
			if len(args) == 2 {
				origin, destination = args[0], args[1]
			}
			route, err := c.maps.Route(origin, destination)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(route)
		},
	}
}

func (c *cli) citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities maps can be drawn for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CITY\tLAT\tLNG")
			for _, city := range c.maps.Cities() {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", city.Name, city.Lat, city.Lng)
			}
			return w.Flush()
		},
	}
}

func printRides(out io.Writer, rides []domain.Ride) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tTO\tDATE\tTIME\tSEATS\tPRICE\tVEHICLE\tSTATUS\tREVIEW")
	for _, r := range rides {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			r.ID, r.Origin, r.Destination, r.Date, r.Time, r.SeatsAvailable, r.Price, r.Vehicle, r.Status, r.Review)
	}
	w.Flush()
}

func warnSkipped(out io.Writer, mre *repository.MalformedRowsError) {
	if mre != nil {
		fmt.Fprintln(out, "warning:", mre.Error())
	}
}
