package gateway

import (
	"testing"
)

func TestRegistryAddRemoveLastOfUser(t *testing.T) {
	r := NewRegistry()
	phone := NewClient("conn_1", "u_alice", "Alice", nil, 8)
	laptop := NewClient("conn_2", "u_alice", "Alice", nil, 8)
	r.Add(phone)
	r.Add(laptop)

	if last := r.Remove(phone); last {
		t.Fatal("removing first of two connections reported last")
	}
	if last := r.Remove(laptop); !last {
		t.Fatal("removing final connection did not report last")
	}
	if got := len(r.AllClients()); got != 0 {
		t.Fatalf("registry still holds %d clients", got)
	}
}

func TestRegistryRoomMembership(t *testing.T) {
	r := NewRegistry()
	a := NewClient("conn_a", "u_a", "A", nil, 8)
	b := NewClient("conn_b", "u_b", "B", nil, 8)
	r.Add(a)
	r.Add(b)
	r.Join("c_1", a)
	r.Join("c_1", b)

	if !r.InRoom("c_1", "conn_a") || !r.InRoom("c_1", "conn_b") {
		t.Fatal("join did not register both connections")
	}
	if got := len(r.RoomClients("c_1", "")); got != 2 {
		t.Fatalf("room size = %d, want 2", got)
	}
	if got := r.RoomClients("c_1", "conn_a"); len(got) != 1 || got[0].ConnID != "conn_b" {
		t.Fatalf("exclusion snapshot = %v", got)
	}

	r.Leave("c_1", a)
	if r.InRoom("c_1", "conn_a") {
		t.Fatal("leave did not drop membership")
	}
	if !r.InRoom("c_1", "conn_b") {
		t.Fatal("leave removed the wrong connection")
	}
}

func TestRegistryRemoveCleansRooms(t *testing.T) {
	r := NewRegistry()
	a := NewClient("conn_a", "u_a", "A", nil, 8)
	r.Add(a)
	r.Join("c_1", a)
	r.Join("c_2", a)

	r.Remove(a)
	if r.InRoom("c_1", "conn_a") || r.InRoom("c_2", "conn_a") {
		t.Fatal("remove left stale room membership")
	}
	if got := r.RoomClients("c_1", ""); got != nil {
		t.Fatalf("empty room still returns clients: %v", got)
	}
}

func TestRegistryJoinDeadConnIsNoop(t *testing.T) {
	r := NewRegistry()
	ghost := NewClient("conn_ghost", "u_g", "G", nil, 8)
	r.Join("c_1", ghost)
	if r.InRoom("c_1", "conn_ghost") {
		t.Fatal("unregistered connection joined a room")
	}
}
