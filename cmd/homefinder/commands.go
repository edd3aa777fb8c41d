package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"homefinder-client/internal/model"
	"homefinder-client/internal/store"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func usage(line string) error {
	fmt.Println("Usage: homefinder " + line)
	return nil
}

// Auth commands
func (a *app) handleAuth(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("auth <login|register|logout|whoami|profile|reset>")
	}
	session := a.stores.Session

	switch args[0] {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "password")
		fs.Parse(args[1:])
		if !session.Login(ctx, *email, *password) {
			return errors.New(session.Error())
		}
		fmt.Printf("✓ Logged in as %s\n", session.User().Username)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		var in model.RegisterInput
		fs.StringVar(&in.Username, "username", "", "username")
		fs.StringVar(&in.Email, "email", "", "email")
		fs.StringVar(&in.Password, "password", "", "password (min 6 characters)")
		fs.StringVar(&in.FirstName, "first", "", "first name")
		fs.StringVar(&in.LastName, "last", "", "last name")
		fs.StringVar(&in.PhoneNumber, "phone", "", "phone number")
		fs.Parse(args[1:])
		if status := session.Register(ctx, in); status != http.StatusCreated {
			return errors.New(session.Error())
		}
		fmt.Printf("✓ Registered %s\n", in.Username)

	case "logout":
		err := session.Logout(ctx)
		fmt.Println("✓ Logged out")
		return err

	case "whoami":
		u := session.User()
		if u == nil {
			fmt.Println("Not logged in")
			return nil
		}
		w := newTable()
		fmt.Fprintf(w, "ID\t%s\nUsername\t%s\nEmail\t%s\nRole\t%s\nName\t%s %s\n",
			u.ID, u.Username, u.Email, u.Role, u.FirstName, u.LastName)
		return w.Flush()

	case "profile":
		fs := flag.NewFlagSet("profile", flag.ExitOnError)
		username := fs.String("username", "", "new username")
		email := fs.String("email", "", "new email")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		phone := fs.String("phone", "", "phone number")
		image := fs.String("image", "", "profile image URL")
		fs.Parse(args[1:])

		var upd model.ProfileUpdate
		set := func(dst **string, v string) {
			if v != "" {
				*dst = &v
			}
		}
		set(&upd.Username, *username)
		set(&upd.Email, *email)
		set(&upd.FirstName, *first)
		set(&upd.LastName, *last)
		set(&upd.PhoneNumber, *phone)
		set(&upd.ProfileImage, *image)
		if err := session.UpdateProfile(ctx, upd); err != nil {
			return err
		}
		fmt.Println("✓ Profile updated")

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		fs.Parse(args[1:])
		if err := session.RequestPasswordReset(ctx, *email); err != nil {
			return err
		}
		fmt.Println("✓ If the address is registered, a reset link has been sent")

	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
	return nil
}

func printListings(listings []model.Listing, favorites func(model.ID) bool) error {
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tTYPE\tSTATUS\tCITY\tBEDS\tFEATURED\tFAV")
	for _, l := range listings {
		featured, fav := "", ""
		if l.IsFeatured {
			featured = "★"
		}
		if favorites != nil && favorites(l.ID) {
			fav = "♥"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%s\t%s\t%d\t%s\t%s\n",
			l.ID, l.Title, l.Price, l.PropertyType, l.Status, l.Location.City, l.Features.Bedrooms, featured, fav)
	}
	return w.Flush()
}

func readListingInput(path string) (model.ListingInput, error) {
	var in model.ListingInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("parse %s: %w", path, err)
	}
	return in, nil
}

// Listing commands
func (a *app) handleListings(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("listings <list|featured|mine|show|create|update|delete|feature|upload>")
	}
	listings := a.stores.Listings
	authed := a.stores.Session.IsAuthenticated()
	if authed {
		_ = listings.FetchFavoriteIDs(ctx)
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		var f model.ListingFilter
		var ptype, status string
		fs.StringVar(&f.Location, "location", "", "address, city, state or zip")
		fs.Float64Var(&f.MinPrice, "min-price", 0, "minimum price")
		fs.Float64Var(&f.MaxPrice, "max-price", 0, "maximum price")
		fs.StringVar(&ptype, "type", "", "house, apartment, land or commercial")
		fs.StringVar(&status, "status", "", "for-sale or for-rent")
		fs.IntVar(&f.MinBedrooms, "bedrooms", 0, "minimum bedrooms")
		fs.IntVar(&f.MinBathrooms, "bathrooms", 0, "minimum bathrooms")
		fs.Float64Var(&f.MinArea, "min-area", 0, "minimum area")
		fs.StringVar(&f.Keywords, "keywords", "", "words in title or description")
		fs.Parse(args[1:])
		f.PropertyType = model.PropertyType(ptype)
		f.Status = model.ListingStatus(status)

		if err := listings.SetFilters(ctx, f); err != nil {
			return err
		}
		return printListings(listings.Listings(), listings.IsFavorite)

	case "featured":
		if err := listings.FetchFeatured(ctx); err != nil {
			return err
		}
		return printListings(listings.Featured(), listings.IsFavorite)

	case "mine":
		if err := listings.FetchMine(ctx); err != nil {
			return err
		}
		return printListings(listings.Mine(), listings.IsFavorite)

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		id := fs.String("id", "", "listing id")
		fs.Parse(args[1:])
		if err := listings.FetchByID(ctx, model.ID(*id)); err != nil {
			return err
		}
		l := listings.Current()
		if l == nil {
			return errors.New(listings.Error())
		}
		w := newTable()
		fmt.Fprintf(w, "ID\t%s\nTitle\t%s\nPrice\t%.2f\nType\t%s\nStatus\t%s\n", l.ID, l.Title, l.Price, l.PropertyType, l.Status)
		fmt.Fprintf(w, "Address\t%s, %s %s %s\n", l.Location.Address, l.Location.City, l.Location.State, l.Location.ZipCode)
		fmt.Fprintf(w, "Bedrooms\t%d\nBathrooms\t%d\nArea\t%.0f\n", l.Features.Bedrooms, l.Features.Bathrooms, l.Features.Area)
		fmt.Fprintf(w, "Amenities\t%s\nFeatured\t%t\nFavorite\t%t\n", strings.Join(l.Amenities, ", "), l.IsFeatured, listings.IsFavorite(l.ID))
		if l.User != nil {
			fmt.Fprintf(w, "Owner\t%s <%s>\n", l.User.Username, l.User.Email)
		}
		fmt.Fprintf(w, "\n%s\n", l.Description)
		return w.Flush()

	case "create", "update":
		fs := flag.NewFlagSet(args[0], flag.ExitOnError)
		id := fs.String("id", "", "listing id (update only)")
		file := fs.String("file", "", "JSON file with the listing")
		fs.Parse(args[1:])
		in, err := readListingInput(*file)
		if err != nil {
			return err
		}
		var l model.Listing
		if args[0] == "create" {
			l, err = listings.Create(ctx, in)
		} else {
			l, err = listings.Update(ctx, model.ID(*id), in)
		}
		if err != nil {
			return err
		}
		fmt.Printf("✓ Saved listing %s\n", l.ID)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		id := fs.String("id", "", "listing id")
		fs.Parse(args[1:])
		if err := listings.Delete(ctx, model.ID(*id)); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted listing %s\n", *id)

	case "feature":
		fs := flag.NewFlagSet("feature", flag.ExitOnError)
		id := fs.String("id", "", "listing id")
		fs.Parse(args[1:])
		if err := listings.FetchByID(ctx, model.ID(*id)); err != nil {
			return err
		}
		if !listings.ToggleFeature(ctx, model.ID(*id)) {
			return errors.New("could not change the featured flag")
		}
		fmt.Printf("✓ Toggled featured flag of %s\n", *id)

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		file := fs.String("file", "", "image file")
		fs.Parse(args[1:])
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		url, err := listings.UploadImage(ctx, *file, f)
		if err != nil {
			return err
		}
		fmt.Println(url)

	default:
		return fmt.Errorf("unknown listings command: %s", args[0])
	}
	return nil
}

// Favorite commands
func (a *app) handleFavorites(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("favorites <list|toggle>")
	}
	listings := a.stores.Listings
	if err := listings.FetchFavoriteIDs(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		w := newTable()
		fmt.Fprintln(w, "PROPERTY ID")
		for _, id := range listings.Favorites() {
			fmt.Fprintln(w, id)
		}
		return w.Flush()

	case "toggle":
		fs := flag.NewFlagSet("toggle", flag.ExitOnError)
		id := fs.String("id", "", "listing id")
		fs.Parse(args[1:])
		if !listings.ToggleFavorite(ctx, model.ID(*id)) {
			return errors.New("could not update favorites")
		}
		if listings.IsFavorite(model.ID(*id)) {
			fmt.Printf("♥ Saved %s\n", *id)
		} else {
			fmt.Printf("✓ Removed %s\n", *id)
		}

	default:
		return fmt.Errorf("unknown favorites command: %s", args[0])
	}
	return nil
}

// Inquiry commands
func (a *app) handleInquiries(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("inquiries <list|send|status>")
	}
	inquiries := a.stores.Inquiries

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		user := fs.String("user", "", "only inquiries sent by this user id")
		listing := fs.String("listing", "", "only inquiries about this listing id")
		fs.Parse(args[1:])

		var (
			list []model.Inquiry
			err  error
		)
		switch {
		case *user != "":
			err = inquiries.FetchForUser(ctx, model.ID(*user))
			list = inquiries.UserInquiries()
		case *listing != "":
			err = inquiries.FetchForListing(ctx, model.ID(*listing))
			list = inquiries.ListingInquiries()
		default:
			err = inquiries.FetchAll(ctx)
			list = inquiries.Inquiries()
		}
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tPROPERTY\tFROM\tSTATUS\tMESSAGE")
		for _, q := range list {
			fmt.Fprintf(w, "%s\t%s\t%s <%s>\t%s\t%s\n", q.ID, q.PropertyID, q.Name, q.Email, q.Status, q.Message)
		}
		return w.Flush()

	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		var in model.InquiryInput
		var listing string
		fs.StringVar(&listing, "listing", "", "listing id")
		fs.StringVar(&in.Name, "name", "", "your name")
		fs.StringVar(&in.Email, "email", "", "your email")
		fs.StringVar(&in.Message, "message", "", "message")
		fs.Parse(args[1:])
		in.PropertyID = model.ID(listing)
		if u := a.stores.Session.User(); u != nil {
			if in.Email == "" {
				in.Email = u.Email
			}
			if in.Name == "" {
				in.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
			}
		}
		q, err := inquiries.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Inquiry %s sent\n", q.ID)

	case "status":
		fs := flag.NewFlagSet("status", flag.ExitOnError)
		id := fs.String("id", "", "inquiry id")
		status := fs.String("status", "", "pending, responded or closed")
		fs.Parse(args[1:])
		if err := inquiries.FetchAll(ctx); err != nil {
			return err
		}
		if err := inquiries.UpdateStatus(ctx, model.ID(*id), model.InquiryStatus(*status)); err != nil {
			return err
		}
		fmt.Printf("✓ Inquiry %s is now %s\n", *id, *status)

	default:
		return fmt.Errorf("unknown inquiries command: %s", args[0])
	}
	return nil
}

// Chat commands
func (a *app) handleChats(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("chats <list|open|send|read>")
	}
	chats := a.stores.Chats
	viewer := a.stores.Session.ViewerID()
	if err := chats.FetchUserChats(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		w := newTable()
		fmt.Fprintln(w, "ID\tWITH\tPROPERTY\tUNREAD\tLAST MESSAGE")
		for _, c := range chats.Chats() {
			unread := ""
			if !c.IsRead && (c.LastMessageSenderID == nil || *c.LastMessageSenderID != viewer) {
				unread = "●"
			}
			other := store.OtherParticipant(c, viewer)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, other.Username, c.PropertyID, unread, c.LastMessage)
		}
		return w.Flush()

	case "open":
		fs := flag.NewFlagSet("open", flag.ExitOnError)
		id := fs.String("id", "", "chat id")
		fs.Parse(args[1:])
		chatID := model.ID(*id)
		if err := chats.SetActiveChat(ctx, &chatID); err != nil {
			return err
		}
		st := chats.State()
		names := map[model.ID]string{viewer: "you"}
		if st.ActiveChat != nil {
			other := store.OtherParticipant(*st.ActiveChat, viewer)
			names[other.ID] = other.Username
		}
		w := newTable()
		for _, m := range st.Messages {
			who := names[m.SenderID]
			if who == "" {
				who = m.SenderID.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.CreatedAt.Format("2006-01-02 15:04"), who, m.Message)
		}
		return w.Flush()

	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		id := fs.String("id", "", "chat id")
		message := fs.String("message", "", "message text")
		fs.Parse(args[1:])
		if _, err := chats.SendMessage(ctx, model.ID(*id), *message); err != nil {
			return err
		}
		fmt.Println("✓ Sent")

	case "read":
		fs := flag.NewFlagSet("read", flag.ExitOnError)
		id := fs.String("id", "", "chat id")
		fs.Parse(args[1:])
		if !chats.MarkAsRead(ctx, model.ID(*id)) {
			return fmt.Errorf("chat %s could not be marked as read", *id)
		}
		fmt.Println("✓ Marked as read")

	default:
		return fmt.Errorf("unknown chats command: %s", args[0])
	}
	return nil
}
