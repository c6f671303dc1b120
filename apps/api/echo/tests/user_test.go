package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/user"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Login User", "usr.login", "usr.login@test.cd", "GoodPassword#1", []string{user.RoleStudent}, "L1A", true)
	inactive := testutil.CreateUser(t, usrRepo, "Inactive", "usr.off", "usr.off@test.cd", "GoodPassword#1", []string{user.RoleStudent}, "L1A", false)

	tests := []httpTest{
		{
			name: "bad credentials", body: marchallObj(t, map[string]string{"username": usr.Username, "password": "wrong"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", body: marchallObj(t, map[string]string{"username": "who.dis", "password": "wrong"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, map[string]string{"username": inactive.Username, "password": "GoodPassword#1"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("successful login", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login",
			marchallObj(t, map[string]string{"username": usr.Username, "password": "GoodPassword#1"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("login failed: code = %v, body = %v", rec.Code, rec.Body.String())
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling login response: %v", err)
		}
		if resp.Token == "" {
			t.Error("login returned an empty token")
		}

		// email works too
		req, rec = newRequest(http.MethodPost, "/v1/users/login",
			marchallObj(t, map[string]string{"username": usr.Email, "password": "GoodPassword#1"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("login by email failed: code = %v", rec.Code)
		}
	})
}

func Test_userApi_retrieve(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Self", "usr.self", "usr.self@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	other := testutil.CreateUser(t, usrRepo, "Other", "usr.other", "usr.other@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "usr.admin", "usr.admin@test.cd", "", []string{user.RoleAdmin}, "", true)

	// self
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve self: code = %v", rec.Code)
	}
	var got user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling user: %v", err)
	}
	if got.ID != usr.ID {
		t.Errorf("retrieved %v, want %v", got.ID, usr.ID)
	}

	// not someone else
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("retrieve other: code = %v, want 403", rec.Code)
	}

	// admins may
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+other.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin retrieve: code = %v, want 200", rec.Code)
	}
}

func Test_userApi_register(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Reg Admin", "reg.admin", "reg.admin@test.cd", "", []string{user.RoleAdminPrincipal}, "", true)
	student := testutil.CreateUser(t, usrRepo, "Reg Student", "reg.stud", "reg.stud@test.cd", "", []string{user.RoleStudent}, "L1A", true)

	body := marchallObj(t, map[string]interface{}{
		"name":     "New Student",
		"username": "reg_new",
		"email":    "reg.new@test.cd",
		"password": "SomeStr0ngPass!",
		"roles":    []string{user.RoleStudent},
		"class_id": "L1A",
	})

	// students cannot register users
	req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, student), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student register: code = %v, want 403", rec.Code)
	}

	// admins can
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var created user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshalling created user: %v", err)
	}
	if created.Username != "reg_new" || !created.IsStudent() {
		t.Errorf("created = %+v, want student reg_new", created)
	}
}
