package cluster

import (
	"encoding/json"
	"fmt"
)

// Condition reasons reported by the cloud-provider reconciler on
// CloudPrivateIPConfig resources.
const (
	ReasonSuccess = "CloudResponseSuccess"
	ReasonPending = "CloudResponsePending"
	ReasonError   = "CloudResponseError"
)

// Assignment binds one requested egress IP to a node. Node is empty while
// the IP is awaiting placement.
type Assignment struct {
	IP   string
	Node string
}

// EgressIP is one egress-IP request: the ordered set of requested addresses
// from spec plus the current per-node bindings from status. Values are
// immutable once decoded; the engine never mutates cluster state.
type EgressIP struct {
	Name         string
	RequestedIPs []string
	Assignments  []Assignment
}

// Condition is one entry in a CloudPrivateIPConfig's transition history.
// LastTransitionTime keeps the raw RFC3339 string; parsing is deferred to
// the aggregation step, which tolerates unparsable values.
type Condition struct {
	Reason             string
	LastTransitionTime string
}

// CloudPrivateIPConfig tracks the cloud-provider reconciliation state for a
// single IP address. Name is the IP. StatusNode, when set, is preferred over
// SpecNode as the authoritative placement.
type CloudPrivateIPConfig struct {
	Name       string
	SpecNode   string
	StatusNode string
	Conditions []Condition
}

// Node returns the reconciler's view of which node holds this IP.
func (c CloudPrivateIPConfig) Node() string {
	if c.StatusNode != "" {
		return c.StatusNode
	}
	return c.SpecNode
}

// Latest returns the last condition in the history and true, or a zero
// Condition and false when the history is empty.
func (c CloudPrivateIPConfig) Latest() (Condition, bool) {
	if len(c.Conditions) == 0 {
		return Condition{}, false
	}
	return c.Conditions[len(c.Conditions)-1], true
}

// Previous returns the condition immediately before the latest one.
func (c CloudPrivateIPConfig) Previous() (Condition, bool) {
	if len(c.Conditions) < 2 {
		return Condition{}, false
	}
	return c.Conditions[len(c.Conditions)-2], true
}

// --- wire shapes -------------------------------------------------------------

// The cluster returns Kubernetes list documents; only the fields the engine
// consumes are decoded. Every list must carry an "items" array; a document
// without one is malformed, matching the upstream contract.

type egressIPList struct {
	Items *[]egressIPItem `json:"items"`
}

type egressIPItem struct {
	Metadata objectMeta `json:"metadata"`
	Spec     struct {
		EgressIPs []string `json:"egressIPs"`
	} `json:"spec"`
	Status struct {
		Items []struct {
			EgressIP string `json:"egressIP"`
			Node     string `json:"node"`
		} `json:"items"`
	} `json:"status"`
}

type cpicList struct {
	Items *[]cpicItem `json:"items"`
}

type cpicItem struct {
	Metadata objectMeta `json:"metadata"`
	Spec     struct {
		Node string `json:"node"`
	} `json:"spec"`
	Status struct {
		Node       string `json:"node"`
		Conditions []struct {
			Reason             string `json:"reason"`
			LastTransitionTime string `json:"lastTransitionTime"`
		} `json:"conditions"`
	} `json:"status"`
}

type nodeList struct {
	Items *[]struct {
		Metadata objectMeta `json:"metadata"`
	} `json:"items"`
}

type objectMeta struct {
	Name string `json:"name"`
}

// DecodeEgressIPs parses an EgressIP list document.
func DecodeEgressIPs(data []byte) ([]EgressIP, error) {
	var list egressIPList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode egressip list: %w", err)
	}
	if list.Items == nil {
		return nil, fmt.Errorf("decode egressip list: missing items field")
	}

	out := make([]EgressIP, 0, len(*list.Items))
	for _, item := range *list.Items {
		eip := EgressIP{
			Name:        item.Metadata.Name,
			RequestedIPs: item.Spec.EgressIPs,
		}
		for _, a := range item.Status.Items {
			eip.Assignments = append(eip.Assignments, Assignment{
				IP:   a.EgressIP,
				Node: a.Node,
			})
		}
		out = append(out, eip)
	}
	return out, nil
}

// DecodeCPICs parses a CloudPrivateIPConfig list document.
func DecodeCPICs(data []byte) ([]CloudPrivateIPConfig, error) {
	var list cpicList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode cloudprivateipconfig list: %w", err)
	}
	if list.Items == nil {
		return nil, fmt.Errorf("decode cloudprivateipconfig list: missing items field")
	}

	out := make([]CloudPrivateIPConfig, 0, len(*list.Items))
	for _, item := range *list.Items {
		cpic := CloudPrivateIPConfig{
			Name:       item.Metadata.Name,
			SpecNode:   item.Spec.Node,
			StatusNode: item.Status.Node,
		}
		for _, c := range item.Status.Conditions {
			cpic.Conditions = append(cpic.Conditions, Condition{
				Reason:             c.Reason,
				LastTransitionTime: c.LastTransitionTime,
			})
		}
		out = append(out, cpic)
	}
	return out, nil
}

// DecodeNodes parses a Node list document into node names.
func DecodeNodes(data []byte) ([]string, error) {
	var list nodeList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode node list: %w", err)
	}
	if list.Items == nil {
		return nil, fmt.Errorf("decode node list: missing items field")
	}

	out := make([]string, 0, len(*list.Items))
	for _, item := range *list.Items {
		if item.Metadata.Name != "" {
			out = append(out, item.Metadata.Name)
		}
	}
	return out, nil
}
