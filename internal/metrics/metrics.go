// Copyright (c) 2026 Rise Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed counts successfully handled queue records per topic.
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_records_processed_total",
		Help: "Queue records handled successfully.",
	}, []string{"topic"})

	// RecordErrors counts failed queue records per topic. Failures are
	// isolated per record and retried via redelivery.
	RecordErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_record_errors_total",
		Help: "Queue records that failed processing.",
	}, []string{"topic"})

	// RecordsDebounced counts records dropped as redeliveries.
	RecordsDebounced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_records_debounced_total",
		Help: "Queue records skipped by the redelivery debouncer.",
	}, []string{"topic"})

	// ContactsDecayed counts contacts shrunk per decay sweep.
	ContactsDecayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_contacts_decayed_total",
		Help: "Contacts decayed by the periodic sweep.",
	})

	// CardsRefreshed counts per-agent cards regenerated.
	CardsRefreshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_cards_refreshed_total",
		Help: "Agent summary cards regenerated.",
	})

	// AgentsFlagged counts agent ids unioned into the refresh-flag set.
	AgentsFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_agents_flagged_total",
		Help: "Agent ids flagged for card refresh.",
	})
)
