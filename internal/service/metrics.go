package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagify_uploads_total",
			Help: "Uploads handled, by file kind and result",
		},
		[]string{"kind", "result"},
	)

	uploadedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagify_uploaded_bytes_total",
			Help: "Bytes stored in the media store, as reported by it",
		},
		[]string{"kind"},
	)

	deletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagify_deletes_total",
			Help: "File deletions, by result",
		},
		[]string{"result"},
	)

	// Objects left in the media store without a record or the other way around
	orphansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagify_orphans_total",
			Help: "Media store and database went out of sync",
		},
		[]string{"op"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storagify_notifications_total",
			Help: "Notification mails, by kind and result",
		},
		[]string{"kind", "result"},
	)
)
