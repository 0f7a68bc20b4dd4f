package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type fakeAPI struct {
	mu      sync.Mutex
	points  map[int64]int64
	adjusts int
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{points: map[int64]int64{7: 100}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "tok-123",
			"admin":   map[string]any{"id": 1, "username": body.Username, "role": "admin"},
		})
	})

	mux.HandleFunc("GET /api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Token is missing"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"stats":   map[string]any{"users": map[string]any{"total": 45, "new_today": 2, "vip": 3}},
		})
	})

	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		const total = 45
		var users []map[string]any
		for id := (page-1)*limit + 1; id <= min(page*limit, total); id++ {
			users = append(users, map[string]any{"user_id": id, "username": fmt.Sprintf("user%02d", id), "points": 10})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"users":      users,
			"pagination": map[string]any{"page": page, "limit": limit, "total": total, "pages": (total + limit - 1) / limit},
		})
	})

	mux.HandleFunc("GET /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		points, ok := f.points[id]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    map[string]any{"user_id": id, "username": "alice", "first_name": "Alice", "points": points, "is_vip": 1},
			"points_history": []map[string]any{
				{"points": 10, "reason": "Lesson completed", "transaction_type": "earned", "date": "2024-01-02 10:00:00"},
			},
			"lessons_progress": []map[string]any{
				{"title_en": "Intro to XSS", "completed": 1, "completion_date": "2024-01-02", "quiz_score": 90},
				{"title_en": "SQL injection", "completed": 0},
			},
		})
	})

	mux.HandleFunc("POST /api/admin/users/{id}/points", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body struct {
			Points int64
			Action string
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.adjusts++
		if body.Action == "subtract" && body.Points > f.points[id] {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Insufficient points"})
			return
		}
		if body.Action == "add" {
			f.points[id] += body.Points
		} else {
			f.points[id] -= body.Points
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Points updated"})
	})

	mux.HandleFunc("GET /api/admin/lessons", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lessons": []map[string]any{{"id": 1, "title_en": "Intro to XSS", "level": "beginner", "enrolled_users": 12, "is_premium": 0}},
		})
	})

	mux.HandleFunc("GET /api/admin/news", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("search") {
			t.Errorf("news request carried a search parameter: %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"news":       []map[string]any{{"id": 3, "title_en": "New CVE", "severity": "critical", "is_featured": 1}},
			"pagination": map[string]any{"page": 1, "limit": 20, "total": 1, "pages": 1},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("ACADEMY_API_URL", srv.URL)
	t.Setenv("ACADEMY_LOG_FILE", "")
	return f, srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUsersCommand(t *testing.T) {
	newFakeAPI(t)

	out, err := execute(t, "", "--ephemeral", "users", "--page", "2")
	if err != nil {
		t.Fatalf("users failed: %v", err)
	}
	if !strings.Contains(out, "@user21") || strings.Contains(out, "@user41") {
		t.Errorf("Expected rows 21-40:\n%s", out)
	}
	if !strings.Contains(out, "Showing 21 to 40 of 45 (page 2/3)") {
		t.Errorf("Missing range line:\n%s", out)
	}
}

func TestUserCommand(t *testing.T) {
	newFakeAPI(t)

	out, err := execute(t, "", "--ephemeral", "user", "7")
	if err != nil {
		t.Fatalf("user failed: %v", err)
	}
	for _, want := range []string{
		"Alice (@alice)", "Points: 100", "VIP: true", "+10  Lesson completed",
		"Intro to XSS: completed 2024-01-02 (quiz 90%)", "SQL injection: in progress",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "", "--ephemeral", "user", "abc"); err == nil {
		t.Error("Expected an error for a non-numeric id")
	}

	_, err = execute(t, "", "--ephemeral", "user", "99")
	if err == nil || !strings.Contains(err.Error(), "User not found") {
		t.Errorf("Expected the backend message, got %v", err)
	}
}

func TestPointsCommand(t *testing.T) {
	f, _ := newFakeAPI(t)

	out, err := execute(t, "", "--ephemeral", "points", "7", "add", "50", "--reason", "bonus")
	if err != nil {
		t.Fatalf("points failed: %v", err)
	}
	if !strings.Contains(out, "100 -> 150 points") {
		t.Errorf("Unexpected output: %s", out)
	}

	_, err = execute(t, "", "--ephemeral", "points", "7", "subtract", "500")
	if err == nil || !strings.Contains(err.Error(), "Insufficient points") {
		t.Errorf("Expected rejection, got %v", err)
	}
	if f.points[7] != 150 {
		t.Errorf("Rejected adjustment changed points to %d", f.points[7])
	}
}

func TestPointsCommandValidation(t *testing.T) {
	f, _ := newFakeAPI(t)

	tests := [][]string{
		{"7", "add", "0"},
		{"7", "add", "-5"},
		{"7", "add", "many"},
		{"7", "add", "50abc"},
		{"7", "double", "5"},
	}
	for _, args := range tests {
		if _, err := execute(t, "", append([]string{"--ephemeral", "points"}, args...)...); err == nil {
			t.Errorf("Expected %v to be rejected", args)
		}
	}
	if f.adjusts != 0 {
		t.Errorf("Invalid adjustments reached the backend %d times", f.adjusts)
	}
}

func TestDashboardRequiresLogin(t *testing.T) {
	newFakeAPI(t)

	_, err := execute(t, "", "--ephemeral", "dashboard")
	if err == nil {
		t.Fatal("Expected an error without a session")
	}
	if !strings.Contains(err.Error(), "academy-admin login") {
		t.Errorf("Expected a login hint, got %v", err)
	}
}

func TestLessonsAndNews(t *testing.T) {
	newFakeAPI(t)

	out, err := execute(t, "", "--ephemeral", "lessons")
	if err != nil {
		t.Fatalf("lessons failed: %v", err)
	}
	if !strings.Contains(out, "Intro to XSS") {
		t.Errorf("Missing lesson:\n%s", out)
	}

	out, err = execute(t, "", "--ephemeral", "news")
	if err != nil {
		t.Fatalf("news failed: %v", err)
	}
	if !strings.Contains(out, "★ New CVE") {
		t.Errorf("Missing featured news item:\n%s", out)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	newFakeAPI(t)

	_, err := execute(t, "", "--ephemeral", "export", "users", filepath.Join(t.TempDir(), "users.xlsx"))
	if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
		t.Errorf("Expected an unsupported format error, got %v", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	newFakeAPI(t)
	state := filepath.Join(t.TempDir(), "state.duckdb")

	out, err := execute(t, "admin\nsecret\n", "--state-path", state, "login")
	if err != nil {
		if strings.Contains(err.Error(), "session store") {
			t.Skipf("DuckDB not available: %v", err)
		}
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Logged in as admin") {
		t.Errorf("Unexpected login output: %s", out)
	}

	out, err = execute(t, "", "--state-path", state, "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Username: admin") || !strings.Contains(out, "Role:     admin") {
		t.Errorf("Unexpected whoami output: %s", out)
	}

	out, err = execute(t, "", "--state-path", state, "dashboard")
	if err != nil {
		t.Fatalf("dashboard with a session failed: %v", err)
	}
	if !strings.Contains(out, "45 total") {
		t.Errorf("Unexpected dashboard output: %s", out)
	}

	if _, err := execute(t, "", "--state-path", state, "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := execute(t, "", "--state-path", state, "whoami"); err == nil {
		t.Error("whoami should fail after logout")
	}
}

func TestLoginRejected(t *testing.T) {
	newFakeAPI(t)

	_, err := execute(t, "", "--ephemeral", "login", "--username", "admin", "--password", "wrong")
	if err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("Expected rejected login, got %v", err)
	}
}
