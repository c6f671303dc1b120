package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_attendanceApi_tokenAndMarkQR(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "att.teach", "att.teach@test.cd", "", []string{user.RoleTeacher}, "", true)
	student := testutil.CreateUser(t, usrRepo, "Student", "att.stud", "att.stud@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	outsider := testutil.CreateUser(t, usrRepo, "Out", "att.out", "att.out@test.cd", "", []string{user.RoleStudent}, "L2B", true)
	mod := testutil.CreateModule(t, schoolRepo, "Algorithms", "ALG101", "L1A")
	sess := testutil.CreateSession(t, schoolRepo, mod, teacher.ID, "B12")

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	body := marchallObj(t, map[string]string{"session_id": sess.ID, "date": "2026-03-02"})

	// auth failures
	authTests := []httpTest{
		{
			name: "token issue requires auth", method: http.MethodPost, path: "/v1/attendance/token",
			body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "students cannot issue tokens", method: http.MethodPost, path: "/v1/attendance/token",
			body: body, token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "teachers cannot scan", method: http.MethodPost, path: "/v1/attendance/mark-qr",
			body: marchallObj(t, map[string]string{"token": "whatever"}), token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range authTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// teacher issues a display token
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/token", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("token issue failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var tokenResp struct {
		SessionID  string `json:"session_id"`
		ModuleName string `json:"module_name"`
		Token      string `json:"token"`
		ExpiresIn  int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tokenResp); err != nil {
		t.Fatalf("unmarshalling token response: %v", err)
	}
	if tokenResp.ModuleName != mod.Name || tokenResp.Token == "" {
		t.Fatalf("unexpected token response: %+v", tokenResp)
	}
	if tokenResp.ExpiresIn <= 0 || tokenResp.ExpiresIn > 60 {
		t.Errorf("expires_in = %v, want within (0, 60]", tokenResp.ExpiresIn)
	}

	// student scans it
	scan := marchallObj(t, map[string]string{"token": tokenResp.Token})
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/mark-qr", studentToken, scan)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-qr failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var record attendance.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("unmarshalling record: %v", err)
	}
	if record.Status != attendance.StatusPresent || record.Method != attendance.MethodQR {
		t.Errorf("record = %v/%v, want present/qr", record.Status, record.Method)
	}

	// a student from another class is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/mark-qr", getToken(t, outsider), scan)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign class scan: code = %v, want 403", rec.Code)
	}

	// garbage tokens are a typed 422
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/mark-qr", studentToken,
		marchallObj(t, map[string]string{"token": "@@@garbage@@@"}))
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusUnprocessableEntity, wantData: marchallObj(t, httpErr{Error: "malformed token"})}
	checkCodeAndData(t, tt, rec)

	// the student sees their own record and stats
	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: code = %v", rec.Code)
	}
	var recs []attendance.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("unmarshalling records: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != record.ID {
		t.Errorf("list = %+v, want the scanned record only", recs)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/stats", studentToken)
	app.ServeHTTP(rec, req)
	var stats attendance.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshalling stats: %v", err)
	}
	if stats.Total != 1 || stats.Present != 1 {
		t.Errorf("stats = %+v, want 1 total / 1 present", stats)
	}
}

func Test_attendanceApi_tokenQRImage(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "qr.teach", "qr.teach@test.cd", "", []string{user.RoleTeacher}, "", true)
	mod := testutil.CreateModule(t, schoolRepo, "Databases", "DB201", "L2A")
	sess := testutil.CreateSession(t, schoolRepo, mod, teacher.ID, "C1")

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/token/qr?session_id="+sess.ID+"&date=2026-03-02", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("token qr failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %v, want image/png", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func Test_attendanceApi_markManualBatch(t *testing.T) {
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "bat.teach", "bat.teach@test.cd", "", []string{user.RoleTeacher}, "", true)
	s1 := testutil.CreateUser(t, usrRepo, "S1", "bat.s1", "bat.s1@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	s2 := testutil.CreateUser(t, usrRepo, "S2", "bat.s2", "bat.s2@test.cd", "", []string{user.RoleStudent}, "L1A", true)
	mod := testutil.CreateModule(t, schoolRepo, "Networks", "NET301", "L1A")
	sess := testutil.CreateSession(t, schoolRepo, mod, teacher.ID, "D4")

	body := marchallObj(t, map[string]interface{}{
		"session_id": sess.ID,
		"date":       "2026-03-03",
		"items": []map[string]string{
			{"student_id": s1.ID, "status": "present"},
			{"student_id": "ghost", "status": "absent"},
			{"student_id": s2.ID, "status": "absent"},
		},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/mark-manual-batch", getToken(t, teacher), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch failed: code = %v, body = %v", rec.Code, rec.Body.String())
	}
	var res attendance.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling batch result: %v", err)
	}
	if res.Marked != 2 || len(res.Errors) != 1 || res.Errors[0].Index != 1 {
		t.Errorf("batch result = %+v, want 2 marked, 1 error at index 1", res)
	}

	// validation: bad date is a 422 field map
	bad := marchallObj(t, map[string]interface{}{
		"session_id": sess.ID,
		"date":       "03/03/2026",
		"items":      []map[string]string{{"student_id": s1.ID, "status": "present"}},
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/mark-manual-batch", getToken(t, teacher), bad)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad date: code = %v, want 422", rec.Code)
	}
}
