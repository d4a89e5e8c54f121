package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]
	c := newClient(getAPIURL())

	var err error
	switch command {
	case "auth":
		err = handleAuth(c, args)
	case "vendor":
		err = handleVendor(c, args)
	case "onboard":
		err = handleOnboard(c, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(c *client, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: vendoronboard auth <register|login|logout|who>")
		return nil
	}

	switch args[0] {
	case "register":
		return registerOwner(c, args[1:])
	case "login":
		return loginOwner(c, args[1:])
	case "logout":
		os.Remove(tokenFile())
		fmt.Println("✓ Logged out")
		return nil
	case "who":
		token := loadToken()
		if token == "" {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("✓ Logged in (token: %s...)\n", token[:min(20, len(token))])
		return nil
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func handleVendor(c *client, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: vendoronboard vendor <invite|list|show|approve>")
		return nil
	}

	c.token = loadToken()
	switch args[0] {
	case "invite":
		return inviteVendor(c, args[1:])
	case "list":
		return listVendors(c)
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: vendoronboard vendor show <vendor-id>")
		}
		return showVendor(c, args[1])
	case "approve":
		if len(args) < 2 {
			return fmt.Errorf("usage: vendoronboard vendor approve <vendor-id>")
		}
		return approveVendor(c, args[1])
	default:
		return fmt.Errorf("unknown vendor command: %s", args[0])
	}
}

func handleOnboard(c *client, args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: vendoronboard onboard <show|upload|submit> <invite-token> [options]")
		return nil
	}

	token := args[1]
	switch args[0] {
	case "show":
		return showOnboarding(c, token)
	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		docType := fs.String("type", "", "document type: w9, coi, banking or license")
		file := fs.String("file", "", "path of the file to upload")
		fs.Parse(args[2:])
		if *docType == "" || *file == "" {
			fs.PrintDefaults()
			return fmt.Errorf("type and file are required")
		}
		doc, err := c.uploadDocument(token, *docType, *file)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded %s: %s\n", doc.Label, doc.FileName)
		return nil
	case "submit":
		state, err := c.submit(token)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Submitted for review (status: %s)\n", state.Vendor.StatusLabel)
		return nil
	default:
		return fmt.Errorf("unknown onboard command: %s", args[0])
	}
}

// Auth commands
func registerOwner(c *client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "owner email")
	password := fs.String("password", "", "password")
	business := fs.String("business", "", "business name (optional)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	session, err := c.register(*email, *password, *business)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := saveToken(session.Token); err != nil {
		return err
	}
	fmt.Printf("✓ Owner registered: %s\n", session.Email)
	return nil
}

func loginOwner(c *client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "owner email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	session, err := c.login(*email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveToken(session.Token); err != nil {
		return err
	}
	fmt.Printf("✓ Logged in as: %s\n", session.Email)
	return nil
}

// Vendor commands
func inviteVendor(c *client, args []string) error {
	fs := flag.NewFlagSet("invite", flag.ExitOnError)
	company := fs.String("company", "", "vendor company name")
	email := fs.String("email", "", "vendor contact email")
	fs.Parse(args)

	if *company == "" || *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("company and email are required")
	}

	resp, err := c.invite(*company, *email)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Invited %s (%s)\n", resp.Vendor.CompanyName, resp.Vendor.ID)
	fmt.Printf("  Onboarding link: %s\n", resp.InviteLink)
	return nil
}

func listVendors(c *client) error {
	vendors, err := c.listVendors()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tEMAIL\tSTATUS\tINVITED")
	for _, v := range vendors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.CompanyName, v.Email, v.StatusLabel, v.InvitedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func showVendor(c *client, id string) error {
	detail, err := c.vendorDetail(id)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>  [%s]\n", detail.Vendor.CompanyName, detail.Vendor.Email, detail.Vendor.StatusLabel)
	fmt.Printf("Onboarding link: %s\n\n", detail.InviteLink)
	printSlots(detail.Documents)
	return nil
}

func approveVendor(c *client, id string) error {
	v, err := c.approve(id)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s approved\n", v.CompanyName)
	return nil
}

// Onboard commands
func showOnboarding(c *client, token string) error {
	state, err := c.onboarding(token)
	if err != nil {
		return err
	}
	fmt.Printf("%s  [%s]\n\n", state.Vendor.CompanyName, state.Vendor.StatusLabel)
	printSlots(state.Documents)
	if len(state.Completeness.Missing) > 0 {
		fmt.Printf("\nMissing: %s\n", strings.Join(state.Completeness.Missing, ", "))
	}
	if state.CanSubmit {
		fmt.Println("\nAll documents uploaded. Run `vendoronboard onboard submit <token>` to submit for review.")
	}
	return nil
}

func printSlots(slots []slot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tFILE\tUPLOADED\tID")
	for _, s := range slots {
		if s.Document == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\n", s.Label)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Label, s.Document.FileName, s.Document.UploadedAt.Format("2006-01-02 15:04"), s.Document.ID)
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("VENDORONBOARD_API"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vendoronboard", "token")
}

func saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(token), 0o600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}

func printUsage() {
	fmt.Print(`vendoronboard CLI

Usage:
  vendoronboard <command> [options]

Commands:
  auth     Business owner sessions (register, login, logout, who)
  vendor   Business operations (invite, list, show, approve)
  onboard  Vendor operations with an invite token (show, upload, submit)
  help     Show this help message

Environment Variables:
  VENDORONBOARD_API    API endpoint (default: http://localhost:8080/api)

Examples:
  vendoronboard auth register -email owner@example.com -password secret123 -business "Acme Foods"
  vendoronboard vendor invite -company "Fresh Produce Co" -email ap@fresh.example
  vendoronboard onboard upload <token> -type w9 -file ./w9.pdf
  vendoronboard onboard submit <token>
  vendoronboard vendor approve <vendor-id>
`)
}
