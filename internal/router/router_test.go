package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apa-backoffice/internal/router"
)

const adminID = "admin-1"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(t.Context(), router.Options{
		AuthVerifier:    nil, // modo dev: X-Debug-User-ID
		BootstrapAdmins: []string{adminID},
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("expected prometheus output, got %d", st)
	}
}

func TestHTTP_EndToEnd_AdoptionLead(t *testing.T) {
	ts := newServer(t)
	userID := "user-1"

	petID := createPet(t, ts.URL, adminID)

	// 1) Pet cargado por admin ya aparece en la vitrina
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public pet, got %d body=%s", st, string(body))
		}
	}

	// 2) Anónimo no puede postularse
	lead := map[string]any{
		"petId": petID,
		"name":  "Ana Souza",
		"email": "ana@example.com",
		"phone": "(42) 99999-1111",
	}
	if st, _ := doReq(t, ts.URL, "POST", "/leads/adoption", "", lead); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous submit, got %d", st)
	}

	// 3) Usuario se postula; el status enviado se ignora
	lead["status"] = "approved"
	leadID := ""
	{
		st, body := doReq(t, ts.URL, "POST", "/leads/adoption", userID, lead)
		if st != http.StatusCreated {
			t.Fatalf("expected 201 submit, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Status != "pending" {
			t.Fatalf("unexpected lead body=%s", string(body))
		}
		leadID = resp.ID
	}

	// 4) Segundo envío con lead activo => 409
	if st, _ := doReq(t, ts.URL, "POST", "/leads/adoption", userID, lead); st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate, got %d", st)
	}

	// 5) Usuario no puede transicionar; admin rechaza sin motivo => 400, con motivo => 200
	if st, _ := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+leadID+"/transition", userID,
		map[string]any{"status": "approved"}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 transition by user, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+leadID+"/transition", adminID,
		map[string]any{"status": "rejected"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 rejection without reason, got %d", st)
	}
	if st, body := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+leadID+"/transition", adminID,
		map[string]any{"status": "rejected", "reason": "Perfil incompatível"}); st != http.StatusOK {
		t.Fatalf("expected 200 reject, got %d body=%s", st, string(body))
	}

	// 6) rejected -> contacted no es legal
	if st, _ := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+leadID+"/transition", adminID,
		map[string]any{"status": "contacted"}); st != http.StatusConflict {
		t.Fatalf("expected 409 illegal transition, got %d", st)
	}

	// 7) Otro usuario no puede reabrir; el dueño sí
	if st, _ := doReq(t, ts.URL, "POST", "/leads/adoption/"+leadID+"/reopen", "user-2", nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 reopen by stranger, got %d", st)
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/leads/adoption/"+leadID+"/reopen", userID, nil)
		if st != http.StatusOK || !strings.Contains(string(body), `"status":"pending"`) {
			t.Fatalf("expected 200 reopen, got %d body=%s", st, string(body))
		}
	}

	// 8) Las transiciones quedan contadas
	_, metrics := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if !strings.Contains(string(metrics), `apa_workflow_transitions_total{from="pending",machine="leads.adoption",to="rejected"} 1`) {
		t.Fatalf("transition counter missing:\n%s", string(metrics))
	}
}

func TestHTTP_AdoptionOnlyForAvailablePetsAndOneActiveLead(t *testing.T) {
	ts := newServer(t)
	userID := "user-1"

	pendingPet := createPet(t, ts.URL, "user-9")
	petID := createPet(t, ts.URL, adminID)
	lead := func(pet string) map[string]any {
		return map[string]any{"petId": pet, "name": "Ana Souza", "phone": "(42) 99999-1111"}
	}

	// anuncio pendente no recibe pedidos
	if st, _ := doReq(t, ts.URL, "POST", "/leads/adoption", userID, lead(pendingPet)); st != http.StatusBadRequest {
		t.Fatalf("expected 400 on pending pet, got %d", st)
	}

	submit := func() string {
		st, body := doReq(t, ts.URL, "POST", "/leads/adoption", userID, lead(petID))
		if st != http.StatusCreated {
			t.Fatalf("expected 201 submit, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		return resp.ID
	}

	first := submit()
	if st, body := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+first+"/transition", adminID,
		map[string]any{"status": "rejected", "reason": "Perfil incompleto"}); st != http.StatusOK {
		t.Fatalf("expected 200 reject, got %d body=%s", st, string(body))
	}
	submit()

	// reabrir el rechazado dejaría dos activos
	{
		st, body := doReq(t, ts.URL, "POST", "/leads/adoption/"+first+"/reopen", userID, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 reopen with active lead, got %d body=%s", st, string(body))
		}
	}
	if st, _ := doReq(t, ts.URL, "POST", "/admin/leads/adoption/"+first+"/transition", adminID,
		map[string]any{"status": "pending"}); st != http.StatusConflict {
		t.Fatalf("expected 409 admin reopen with active lead, got %d", st)
	}

	// adotado: nadie más se postula
	if st, body := doReq(t, ts.URL, "POST", "/admin/pets/"+petID+"/status", adminID,
		map[string]any{"status": "adotado"}); st != http.StatusOK {
		t.Fatalf("expected 200 pet status, got %d body=%s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "POST", "/leads/adoption", "user-2", lead(petID)); st != http.StatusBadRequest {
		t.Fatalf("expected 400 on adopted pet, got %d", st)
	}
}

func TestHTTP_FlagHidesSection(t *testing.T) {
	ts := newServer(t)

	if st, _ := doReq(t, ts.URL, "GET", "/pets", "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 with flags absent, got %d", st)
	}

	if st, _ := doReq(t, ts.URL, "PUT", "/admin/flags", "user-1", map[string]any{"adoption": false}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 flags by user, got %d", st)
	}
	if st, body := doReq(t, ts.URL, "PUT", "/admin/flags", adminID, map[string]any{"adoption": false}); st != http.StatusOK {
		t.Fatalf("expected 200 set flags, got %d body=%s", st, string(body))
	}

	// el holder se entera por la suscripción en vivo
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, _ := doReq(t, ts.URL, "GET", "/pets", "", nil)
		if st == http.StatusNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 404 after disabling adoption, still %d", st)
		}
		time.Sleep(20 * time.Millisecond)
	}

	_, body := doReq(t, ts.URL, "GET", "/flags", "", nil)
	if !strings.Contains(string(body), `"adoption":false`) || !strings.Contains(string(body), `"lostPets":true`) {
		t.Fatalf("unexpected flags body=%s", string(body))
	}
}

func TestHTTP_FoundLostPetCreatesStory(t *testing.T) {
	ts := newServer(t)
	userID := "user-1"

	st, body := doReq(t, ts.URL, "POST", "/lost-pets", userID, map[string]any{
		"name":             "Bidu",
		"species":          "cachorro",
		"description":      "Vira-lata caramelo, coleira azul",
		"lastSeenLocation": "Praça Central",
		"lastSeenDate":     "2025-03-01",
		"contactPhone":     "42999990000",
		"moderationStatus": "approved",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 report, got %d body=%s", st, string(body))
	}
	var lost struct {
		ID               string `json:"id"`
		ModerationStatus string `json:"moderationStatus"`
	}
	_ = json.Unmarshal(body, &lost)
	if lost.ModerationStatus != "pending" {
		t.Fatalf("report must start pending, body=%s", string(body))
	}

	// pendiente de moderación no es público
	_, body = doReq(t, ts.URL, "GET", "/lost-pets", "", nil)
	if strings.Contains(string(body), lost.ID) {
		t.Fatalf("pending report listed publicly")
	}

	if st, body := doReq(t, ts.URL, "POST", "/admin/lost-pets/"+lost.ID+"/moderation", adminID,
		map[string]any{"moderationStatus": "approved"}); st != http.StatusOK {
		t.Fatalf("expected 200 moderation, got %d body=%s", st, string(body))
	}
	if st, body := doReq(t, ts.URL, "POST", "/admin/lost-pets/"+lost.ID+"/status", adminID,
		map[string]any{"status": "encontrado"}); st != http.StatusOK {
		t.Fatalf("expected 200 found, got %d body=%s", st, string(body))
	}
	// no-op: no genera otra historia
	_, _ = doReq(t, ts.URL, "POST", "/admin/lost-pets/"+lost.ID+"/status", adminID, map[string]any{"status": "encontrado"})

	st, body = doReq(t, ts.URL, "GET", "/posts?category=hist%C3%B3ria", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 posts, got %d", st)
	}
	var stories []struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}
	_ = json.Unmarshal(body, &stories)
	if len(stories) != 1 || stories[0].Title != "Final Feliz para Bidu!" || stories[0].Author != "Sistema APA" {
		t.Fatalf("expected one success story, body=%s", string(body))
	}
}

func TestHTTP_AdminOnlyEndpoints(t *testing.T) {
	ts := newServer(t)

	for _, path := range []string{"/admin/dashboard", "/admin/medical-records", "/admin/rescues", "/admin/users"} {
		if st, _ := doReq(t, ts.URL, "GET", path, "user-1", nil); st != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for user, got %d", path, st)
		}
		if st, body := doReq(t, ts.URL, "GET", path, adminID, nil); st != http.StatusOK {
			t.Fatalf("%s: expected 200 for admin, got %d body=%s", path, st, string(body))
		}
	}

	// body que no es multipart
	if st, _ := doReq(t, ts.URL, "POST", "/uploads", "user-1", nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 upload without multipart body, got %d", st)
	}
}

func createPet(t *testing.T, baseURL, userID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, map[string]any{
		"species":      "Cachorro",
		"gender":       "Macho",
		"name":         "Milo",
		"ageValue":     "2",
		"ageUnit":      "anos",
		"size":         "M",
		"photos":       []string{"https://cdn.example.com/milo.jpg"},
		"description":  "Muito dócil e brincalhão",
		"address":      "Rua das Flores, 10",
		"contactPhone": "(42) 99999-0000",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
