// Package mock runs an in-process stand-in for the configuration-management
// server, used by the suite's own tests so they are hermetic. It implements
// a small slice of the real API - status, clients and nodes - with the
// documented behavioral divergences between the legacy implementation and
// the rewrite, so flavor-conditional expectations can be exercised without a
// live deployment.
package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// OutsideUser is a requestor name the mock treats as not being a member of
// any organization: authenticated, but denied by authorization checks.
const OutsideUser = "outside-user"

// Server is a fake configuration-management server for one flavor.
type Server struct {
	URL    string
	Flavor string

	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[string]map[string]any
	nodes   map[string][]byte
	roles   map[string][]byte
}

// NewServer starts a mock server behaving like the given implementation
// flavor ("legacy" or "rewrite"). Callers own the returned server and must
// Close it.
func NewServer(flavor string) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("mock: listen: %w", err)
	}
	s := &Server{
		URL:      "http://" + listener.Addr().String(),
		Flavor:   flavor,
		listener: listener,
		clients:  map[string]map[string]any{},
		nodes:    map[string][]byte{},
		roles:    map[string][]byte{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/_status", s.getStatus).Methods("GET")

	org := r.PathPrefix("/organizations/{org}").Subrouter()
	org.Use(s.requireAuth)
	org.HandleFunc("/clients", s.listClients).Methods("GET")
	org.HandleFunc("/clients", s.createClient).Methods("POST")
	org.HandleFunc("/clients/{name}", s.getClient).Methods("GET")
	org.HandleFunc("/clients/{name}", s.deleteClient).Methods("DELETE")
	org.HandleFunc("/nodes", s.listNodes).Methods("GET")
	org.HandleFunc("/nodes", s.createNode).Methods("POST")
	org.HandleFunc("/nodes/{name}", s.getNode).Methods("GET")
	org.HandleFunc("/nodes/{name}", s.updateNode).Methods("PUT")
	org.HandleFunc("/nodes/{name}", s.deleteNode).Methods("DELETE")
	org.HandleFunc("/roles", s.listRoles).Methods("GET")
	org.HandleFunc("/roles", s.createRole).Methods("POST")
	org.HandleFunc("/roles/{name}", s.getRole).Methods("GET")
	org.HandleFunc("/roles/{name}", s.deleteRole).Methods("DELETE")

	s.server = &http.Server{Handler: r}
	go s.server.Serve(listener)
	return s, nil
}

func (s *Server) Close() {
	s.server.Close()
	s.listener.Close()
}

func (s *Server) legacy() bool { return s.Flavor == "legacy" }

// requireAuth models the server's two-step gate: requests without signing
// headers are unauthenticated (401), and authenticated requestors outside
// the organization are unauthorized (403).
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		userID := req.Header.Get("X-Ops-Userid")
		if userID == "" || req.Header.Get("X-Ops-Authorization-1") == "" {
			writeJSON(w, 401, map[string]any{"error": []string{"authentication required"}})
			return
		}
		if userID == OutsideUser {
			writeJSON(w, 403, map[string]any{
				"error": []string{fmt.Sprintf("'%s' not associated with organization '%s'", userID, mux.Vars(req)["org"])},
			})
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (s *Server) getStatus(w http.ResponseWriter, req *http.Request) {
	body := map[string]any{"status": "pong"}
	if !s.legacy() {
		// the rewrite reports its version from the status endpoint
		body["server_version"] = "2.0.0"
	}
	writeJSON(w, 200, body)
}

func (s *Server) listClients(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]any{}
	for name := range s.clients {
		out[name] = s.objectURI(org, "clients", name)
	}
	writeJSON(w, 200, out)
}

func (s *Server) createClient(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	body, err := io.ReadAll(req.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, 400, map[string]any{"error": []string{"invalid JSON"}})
		return
	}
	name := gjson.GetBytes(body, "name").Str
	if name == "" {
		name = gjson.GetBytes(body, "clientname").Str
	}
	if name == "" {
		writeJSON(w, 400, map[string]any{"error": []string{"Field 'name' missing"}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[name]; exists {
		writeJSON(w, 409, map[string]any{"error": []string{"Client already exists"}})
		return
	}
	record := map[string]any{
		"name":       name,
		"clientname": name,
		"validator":  gjson.GetBytes(body, "validator").Bool(),
		"json_class": "Chef::ApiClient",
		"chef_type":  "client",
	}
	if s.legacy() {
		record["admin"] = gjson.GetBytes(body, "admin").Bool()
	} else {
		record["orgname"] = org
	}
	s.clients[name] = record
	writeJSON(w, 201, map[string]any{"uri": s.objectURI(org, "clients", name)})
}

func (s *Server) getClient(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	record, ok := s.clients[name]
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "client", name)
		return
	}
	writeJSON(w, 200, record)
}

func (s *Server) deleteClient(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	record, ok := s.clients[name]
	if ok {
		delete(s.clients, name)
	}
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "client", name)
		return
	}
	writeJSON(w, 200, record)
}

func (s *Server) listNodes(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]any{}
	for name := range s.nodes {
		out[name] = s.objectURI(org, "nodes", name)
	}
	writeJSON(w, 200, out)
}

func (s *Server) createNode(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	body, err := io.ReadAll(req.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, 400, map[string]any{"error": []string{"invalid JSON"}})
		return
	}
	name := gjson.GetBytes(body, "name").Str
	if name == "" {
		writeJSON(w, 400, map[string]any{"error": []string{"Field 'name' missing"}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[name]; exists {
		writeJSON(w, 409, map[string]any{"error": []string{"Node already exists"}})
		return
	}
	s.nodes[name] = body
	writeJSON(w, 201, map[string]any{"uri": s.objectURI(org, "nodes", name)})
}

func (s *Server) getNode(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	body, ok := s.nodes[name]
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "node", name)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

func (s *Server) updateNode(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	body, err := io.ReadAll(req.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, 400, map[string]any{"error": []string{"invalid JSON"}})
		return
	}
	// the stored name wins over whatever the payload says
	body, _ = sjson.SetBytes(body, "name", name)
	s.mu.Lock()
	_, ok := s.nodes[name]
	if ok {
		s.nodes[name] = body
	}
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "node", name)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

func (s *Server) deleteNode(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	body, ok := s.nodes[name]
	if ok {
		delete(s.nodes, name)
	}
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "node", name)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

func (s *Server) listRoles(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]any{}
	for name := range s.roles {
		out[name] = s.objectURI(org, "roles", name)
	}
	writeJSON(w, 200, out)
}

func (s *Server) createRole(w http.ResponseWriter, req *http.Request) {
	org := mux.Vars(req)["org"]
	body, err := io.ReadAll(req.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, 400, map[string]any{"error": []string{"invalid JSON"}})
		return
	}
	name := gjson.GetBytes(body, "name").Str
	if name == "" {
		writeJSON(w, 400, map[string]any{"error": []string{"Field 'name' missing"}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.roles[name]; exists {
		writeJSON(w, 409, map[string]any{"error": []string{"Role already exists"}})
		return
	}
	s.roles[name] = body
	writeJSON(w, 201, map[string]any{"uri": s.objectURI(org, "roles", name)})
}

func (s *Server) getRole(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	body, ok := s.roles[name]
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "role", name)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

func (s *Server) deleteRole(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	s.mu.Lock()
	body, ok := s.roles[name]
	if ok {
		delete(s.roles, name)
	}
	s.mu.Unlock()
	if !ok {
		s.writeNotFound(w, "role", name)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(body)
}

// writeNotFound reproduces the documented divergence between the two
// implementations: the legacy server names the missing object in its error
// message, the rewrite returns a generic one.
func (s *Server) writeNotFound(w http.ResponseWriter, kind, name string) {
	if s.legacy() {
		writeJSON(w, 404, map[string]any{"error": []string{fmt.Sprintf("Could not load %s %s", kind, name)}})
		return
	}
	writeJSON(w, 404, map[string]any{"error": []string{"not found"}})
}

func (s *Server) objectURI(org, collection, name string) string {
	return fmt.Sprintf("%s/organizations/%s/%s/%s", s.URL, org, collection, name)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
