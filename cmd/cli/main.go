package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
)

var client = &http.Client{Timeout: 15 * time.Second}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "login":
		err = login(args)
	case "logout":
		err = logout()
	case "who":
		err = whoAmI()
	case "members":
		err = handleMembers(args)
	case "contributions":
		err = handleContributions(args)
	case "stats":
		err = showStats()
	case "users":
		err = handleUsers(args)
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

func handleMembers(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: memberledger members <list|count|delete>")
	}

	switch args[0] {
	case "list":
		var members []map[string]any
		if err := call(http.MethodGet, "/members", nil, &members); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCIN\tEMAIL\tPHONE")
		for _, m := range members {
			fmt.Fprintf(w, "%v\t%v %v\t%v\t%v\t%v\n", m["id"], m["firstName"], m["lastName"], m["cin"], m["email"], m["phone"])
		}
		return w.Flush()
	case "count":
		var res struct {
			Count int64 `json:"count"`
		}
		if err := call(http.MethodGet, "/members/count", nil, &res); err != nil {
			return err
		}
		fmt.Println(res.Count)
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: memberledger members delete <member-id>")
		}
		if err := call(http.MethodDelete, "/members/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Printf("✓ Member %s deleted\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown members command: %s", args[0])
	}
}

func handleContributions(args []string) error {
	path := "/contributions"
	if len(args) > 0 && args[0] != "list" {
		return fmt.Errorf("unknown contributions command: %s", args[0])
	}
	if len(args) > 1 {
		path = "/contributions/member/" + args[1]
	}

	var rows []map[string]any
	if err := call(http.MethodGet, path, nil, &rows); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMEMBER\tPERIOD\tAMOUNT\tPAID AT")
	for _, c := range rows {
		who := fmt.Sprint(c["memberId"])
		if first, ok := c["firstName"]; ok {
			who = fmt.Sprintf("%v %v", first, c["lastName"])
		}
		fmt.Fprintf(w, "%v\t%s\t%v-%v\t%v\t%v\n", c["id"], who, c["year"], c["month"], c["amount"], c["paidAt"])
	}
	return w.Flush()
}

func showStats() error {
	var stats struct {
		MemberCount        int64   `json:"memberCount"`
		ContributionsTotal float64 `json:"contributionsTotal"`
		MonthlyStats       []struct {
			Period string  `json:"period"`
			Count  int64   `json:"count"`
			Total  float64 `json:"total"`
		} `json:"monthlyStats"`
	}
	if err := call(http.MethodGet, "/stats", nil, &stats); err != nil {
		return err
	}

	fmt.Printf("Members:       %d\n", stats.MemberCount)
	fmt.Printf("Contributions: %.2f\n\n", stats.ContributionsTotal)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tCOUNT\tTOTAL")
	for _, p := range stats.MonthlyStats {
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", p.Period, p.Count, p.Total)
	}
	return w.Flush()
}

func handleUsers(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: memberledger users <list|create|role|delete>")
	}

	switch args[0] {
	case "list":
		var users []map[string]any
		if err := call(http.MethodGet, "/users", nil, &users); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", u["id"], u["username"], u["role"], u["createdAt"])
		}
		return w.Flush()
	case "create":
		fs := flag.NewFlagSet("users create", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		role := fs.String("role", "member", "admin or member")
		fs.Parse(args[1:])
		if *username == "" || *password == "" {
			fs.PrintDefaults()
			return fmt.Errorf("username and password are required")
		}
		payload := map[string]string{"username": *username, "password": *password, "role": *role}
		if err := call(http.MethodPost, "/users", payload, nil); err != nil {
			return err
		}
		fmt.Printf("✓ User created: %s (%s)\n", *username, *role)
		return nil
	case "role":
		if len(args) < 3 {
			return fmt.Errorf("usage: memberledger users role <user-id> <admin|member>")
		}
		if err := call(http.MethodPut, "/users/"+args[1]+"/role", map[string]string{"role": args[2]}, nil); err != nil {
			return err
		}
		fmt.Printf("✓ User %s is now %s\n", args[1], args[2])
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: memberledger users delete <user-id>")
		}
		if err := call(http.MethodDelete, "/users/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Printf("✓ User %s deleted\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown users command: %s", args[0])
	}
}

// Auth commands
func login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("username and password are required")
	}

	var result struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	payload := map[string]string{"username": *username, "password": *password}
	if err := call(http.MethodPost, "/login", payload, &result); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveSession(result.Username, result.Role, result.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("✓ Logged in as: %s (%s)\n", result.Username, result.Role)
	return nil
}

func logout() error {
	if err := os.Remove(tokenFile()); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Println("✓ Logged out")
	return nil
}

func whoAmI() error {
	username, role, token := loadSession()
	if token == "" {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("✓ Logged in as: %s (%s)\n", username, role)
	return nil
}

// call sends a JSON request with the saved token and decodes a JSON answer
// into out when out is non-nil.
func call(method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, getAPIURL()+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if _, _, token := loadSession(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%d: %s", resp.StatusCode, e.Error)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("MEMBERLEDGER_API"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:3000"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memberledger", "token")
}

// The token file holds "username role token" on one line.
func saveSession(username, role, token string) error {
	if err := os.MkdirAll(filepath.Dir(tokenFile()), 0o700); err != nil {
		return err
	}
	return os.WriteFile(tokenFile(), []byte(username+" "+role+" "+token), 0o600)
}

func loadSession() (username, role, token string) {
	data, err := os.ReadFile(tokenFile())
	if err != nil {
		return "", "", ""
	}
	parts := strings.Fields(string(data))
	if len(parts) != 3 {
		return "", "", ""
	}
	return parts[0], parts[1], parts[2]
}

func printUsage() {
	fmt.Print(`memberledger CLI

Usage:
  memberledger <command> [options]

Commands:
  login           Log in (-username, -password)
  logout          Forget the saved token
  who             Show the logged in account
  members         Member registry (list, count, delete)
  contributions   Contribution ledger (list [member-id])
  stats           Membership statistics
  users           Login accounts (list, create, role, delete) - admin access required
  help            Show this help message

Environment Variables:
  MEMBERLEDGER_API    API endpoint (default: http://localhost:3000)

Examples:
  memberledger login -username admin -password secret
  memberledger members list
  memberledger contributions list 7
  memberledger users create -username clerk -password longenough -role member
`)
}
