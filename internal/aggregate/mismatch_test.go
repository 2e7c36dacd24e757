package aggregate

import (
	"reflect"
	"testing"

	"github.com/rh-john/ocp-eip-monitoring/internal/cluster"
)

func TestDetectMismatches_Agreement(t *testing.T) {
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1"}, cluster.Assignment{IP: "10.0.0.1", Node: "node-a"}),
	}
	cpics := []cluster.CloudPrivateIPConfig{cpic("10.0.0.1", "node-a")}

	if got := detectMismatches(eips, cpics, 3); len(got) != 0 {
		t.Errorf("expected no mismatches, got %v", got)
	}
}

func TestDetectMismatches_NodeMismatch(t *testing.T) {
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1"}, cluster.Assignment{IP: "10.0.0.1", Node: "node-a"}),
	}
	cpics := []cluster.CloudPrivateIPConfig{cpic("10.0.0.1", "node-b")}

	got := detectMismatches(eips, cpics, 3)
	want := []MismatchRecord{{
		IP:       "10.0.0.1",
		Class:    MismatchNode,
		Resource: "eip-1",
		EIPNode:  "node-a",
		CPICNode: "node-b",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDetectMismatches_MissingInEIP(t *testing.T) {
	// The reconciler knows the IP; the assignment resource requested it but
	// has no status binding, and has spare room.
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1", "10.0.0.2"},
			cluster.Assignment{IP: "10.0.0.1", Node: "node-a"}),
	}
	cpics := []cluster.CloudPrivateIPConfig{
		cpic("10.0.0.1", "node-a"),
		cpic("10.0.0.2", "node-b"),
	}

	got := detectMismatches(eips, cpics, 3)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(got), got)
	}
	if got[0].Class != MismatchMissingInEIP {
		t.Errorf("Class: got %q, want %q", got[0].Class, MismatchMissingInEIP)
	}
	if got[0].Resource != "eip-1" {
		t.Errorf("Resource: got %q, want eip-1 (requested-owner fallback)", got[0].Resource)
	}
}

func TestDetectMismatches_AtCapacityExemption(t *testing.T) {
	// eip-1 already binds one IP per eligible node; an extra reconciler entry
	// with no binding is expected, not anomalous.
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"},
			cluster.Assignment{IP: "10.0.0.1", Node: "node-a"},
			cluster.Assignment{IP: "10.0.0.2", Node: "node-b"}),
	}
	cpics := []cluster.CloudPrivateIPConfig{
		cpic("10.0.0.1", "node-a"),
		cpic("10.0.0.2", "node-b"),
		cpic("10.0.0.3", "node-c"),
	}

	if got := detectMismatches(eips, cpics, 2); len(got) != 0 {
		t.Errorf("at-capacity resource should be exempt, got %+v", got)
	}

	// With three eligible nodes the same input is a real gap.
	got := detectMismatches(eips, cpics, 3)
	if len(got) != 1 || got[0].Class != MismatchMissingInEIP {
		t.Errorf("below capacity: got %+v, want one missing_in_eip", got)
	}
}

func TestDetectMismatches_MissingInCPIC(t *testing.T) {
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1"}, cluster.Assignment{IP: "10.0.0.1", Node: "node-a"}),
	}

	got := detectMismatches(eips, nil, 3)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Class != MismatchMissingInCPIC {
		t.Errorf("Class: got %q, want %q", got[0].Class, MismatchMissingInCPIC)
	}
	if got[0].EIPNode != "node-a" {
		t.Errorf("EIPNode: got %q, want node-a", got[0].EIPNode)
	}
}

func TestDetectMismatches_ClassesExclusivePerIP(t *testing.T) {
	// A node-mismatched IP must not additionally appear as missing anywhere.
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.1"}, cluster.Assignment{IP: "10.0.0.1", Node: "node-a"}),
	}
	cpics := []cluster.CloudPrivateIPConfig{cpic("10.0.0.1", "node-b")}

	got := detectMismatches(eips, cpics, 3)
	if len(got) != 1 {
		t.Fatalf("got %d records, want exactly 1", len(got))
	}
}

func TestDetectMismatches_SortedAndDeterministic(t *testing.T) {
	eips := []cluster.EgressIP{
		eip("eip-1", []string{"10.0.0.3", "10.0.0.1", "10.0.0.2"},
			cluster.Assignment{IP: "10.0.0.3", Node: "node-a"},
			cluster.Assignment{IP: "10.0.0.1", Node: "node-b"},
			cluster.Assignment{IP: "10.0.0.2", Node: "node-c"}),
	}

	first := detectMismatches(eips, nil, 5)
	second := detectMismatches(eips, nil, 5)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must yield identical records")
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].IP > first[i].IP {
			t.Fatalf("records not sorted by IP: %+v", first)
		}
	}
}
