package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "core",
		Name:      "orders_created_total",
		Help:      "Total number of orders created.",
	})

	ordersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "core",
		Name:      "orders_cancelled_total",
		Help:      "Total number of orders cancelled.",
	})

	stockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "core",
		Name:      "stock_rejections_total",
		Help:      "Total number of operations rejected for insufficient stock.",
	})
)
