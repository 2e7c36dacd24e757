package aggregate

import (
	"sort"

	"github.com/rh-john/ocp-eip-monitoring/internal/cluster"
)

// MismatchClass classifies one disagreement between the reconciler's and the
// assignment resource's view of an IP. Classes are mutually exclusive per IP
// per cycle.
type MismatchClass string

const (
	// MismatchNode: both views bind the IP, to different nodes.
	MismatchNode MismatchClass = "node_mismatch"

	// MismatchMissingInEIP: the reconciler knows the IP but no assignment
	// status binds it.
	MismatchMissingInEIP MismatchClass = "missing_in_eip"

	// MismatchMissingInCPIC: an assignment status binds the IP but the
	// reconciler has no record of it.
	MismatchMissingInCPIC MismatchClass = "missing_in_cpic"
)

// MismatchRecord is one classified inconsistency, produced fresh each cycle.
type MismatchRecord struct {
	IP       string        `json:"ip"`
	Class    MismatchClass `json:"class"`
	Resource string        `json:"resource,omitempty"`
	EIPNode  string        `json:"eip_node,omitempty"`
	CPICNode string        `json:"cpic_node,omitempty"`
}

// detectMismatches runs the three-way consistency check between the
// reconciliation view and the assignment view.
//
// An IP the reconciler knows but the assignment status does not bind is only
// anomalous when the owning resource has spare room: a resource whose bound-IP
// count already equals the eligible node count is at capacity, so the missing
// binding is expected. eligibleNodes is the size of the current node set.
//
// Records are returned sorted by IP so identical inputs yield identical
// output.
func detectMismatches(eips []cluster.EgressIP, cpics []cluster.CloudPrivateIPConfig, eligibleNodes int) []MismatchRecord {
	// Reconciler view: IP → node, preferring status over spec.
	cpicNode := make(map[string]string, len(cpics))
	for _, c := range cpics {
		cpicNode[c.Name] = c.Node()
	}

	// Assignment view: bound IP → node, IP → owning resource, plus the
	// requested-IP fallback used to name the owner when an IP has no
	// status binding. boundCount feeds the at-capacity exemption.
	eipNode := make(map[string]string)
	ipResource := make(map[string]string)
	requestedOwner := make(map[string]string)
	boundCount := make(map[string]int, len(eips))
	for _, e := range eips {
		for _, ip := range e.RequestedIPs {
			requestedOwner[ip] = e.Name
		}
		for _, a := range e.Assignments {
			ipResource[a.IP] = e.Name
			if a.Node != "" {
				eipNode[a.IP] = a.Node
				boundCount[e.Name]++
			}
		}
	}

	var records []MismatchRecord

	for ip, cNode := range cpicNode {
		if eNode, bound := eipNode[ip]; bound {
			if eNode != cNode {
				records = append(records, MismatchRecord{
					IP:       ip,
					Class:    MismatchNode,
					Resource: ipResource[ip],
					EIPNode:  eNode,
					CPICNode: cNode,
				})
			}
			continue
		}

		owner := ipResource[ip]
		if owner == "" {
			owner = requestedOwner[ip]
		}
		if owner != "" && boundCount[owner] == eligibleNodes {
			// Resource is at capacity; the absent binding is expected.
			continue
		}
		records = append(records, MismatchRecord{
			IP:       ip,
			Class:    MismatchMissingInEIP,
			Resource: owner,
			CPICNode: cNode,
		})
	}

	for ip, eNode := range eipNode {
		if _, known := cpicNode[ip]; !known {
			records = append(records, MismatchRecord{
				IP:       ip,
				Class:    MismatchMissingInCPIC,
				Resource: ipResource[ip],
				EIPNode:  eNode,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].IP < records[j].IP })
	return records
}
