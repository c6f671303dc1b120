package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_schoolApi_sessions(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Sch Admin", "sch.admin", "sch.admin@test.cd", "", []string{user.RoleAdmin}, "", true)
	teacher := testutil.CreateUser(t, usrRepo, "Sch Teacher", "sch.teach", "sch.teach@test.cd", "", []string{user.RoleTeacher}, "", true)
	other := testutil.CreateUser(t, usrRepo, "Sch Other", "sch.other", "sch.other@test.cd", "", []string{user.RoleTeacher}, "", true)
	s1 := testutil.CreateUser(t, usrRepo, "Sch S1", "sch.s1", "sch.s1@test.cd", "", []string{user.RoleStudent}, "SCH1", true)
	s2 := testutil.CreateUser(t, usrRepo, "Sch S2", "sch.s2", "sch.s2@test.cd", "", []string{user.RoleStudent}, "SCH2", true)
	mod := testutil.CreateModule(t, schoolRepo, "Operating Systems", "OS301", "SCH1")

	// admin creates a timetable slot
	body := marchallObj(t, map[string]string{
		"module_id":  mod.ID,
		"teacher_id": teacher.ID,
		"room":       "B2",
		"weekday":    "tuesday",
		"start_time": "10:00",
		"end_time":   "12:00",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var sess school.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshalling session: %v", err)
	}
	if sess.ClassID != mod.ClassID {
		t.Errorf("session class = %v, want inherited %v", sess.ClassID, mod.ClassID)
	}

	// teachers cannot create sessions
	req, rec = newAuthRequest(http.MethodPost, "/v1/sessions", getToken(t, teacher), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("teacher create: code = %v, want 403", rec.Code)
	}

	// the owner lists the cohort's students
	req, rec = newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/students", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("session students failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var roster []user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("unmarshalling roster: %v", err)
	}
	for _, st := range roster {
		if st.ID == s2.ID {
			t.Errorf("roster includes %v from class %v", st.Username, st.ClassID)
		}
	}
	if len(roster) != 1 || roster[0].ID != s1.ID {
		t.Errorf("roster = %+v, want only %v", roster, s1.Username)
	}

	// another teacher is denied
	req, rec = newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/students", getToken(t, other))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("other teacher roster: code = %v, want 403", rec.Code)
	}
}
