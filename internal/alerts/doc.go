// Package alerts implements the rule evaluation engine and webhook delivery.
// Rules are evaluated against each published metrics bundle; webhooks are
// delivered to Slack, Teams, or generic HTTP targets.
package alerts
