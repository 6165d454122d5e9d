package model

import "time"

const (
	RepairKindTopic      = "topic_projection"
	RepairKindMembership = "membership"
	RepairKindOwner      = "owner"
)

// RepairJob asks the repair worker to rebuild a derived projection from the
// canonical records it mirrors.
type RepairJob struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	OwnerID    string         `json:"owner_id"`
	TopicID    string         `json:"topic_id,omitempty"`
	ProblemID  string         `json:"problem_id,omitempty"`
	Flag       MembershipFlag `json:"flag,omitempty"`
	PruneEmpty bool           `json:"prune_empty,omitempty"`
	Attempts   int            `json:"attempts"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	TopicsRebuilt    int `json:"topicsRebuilt"`
	TopicsCreated    int `json:"topicsCreated"`
	TopicsPruned     int `json:"topicsPruned"`
	MembershipsFixed int `json:"membershipsFixed"`
}

func (r *ReconcileReport) Add(o ReconcileReport) {
	r.TopicsRebuilt += o.TopicsRebuilt
	r.TopicsCreated += o.TopicsCreated
	r.TopicsPruned += o.TopicsPruned
	r.MembershipsFixed += o.MembershipsFixed
}
