/*
Package monitoring provides Prometheus metrics for the frame host.

# Overview

Metrics is registered on an injected prometheus.Registerer and doubles as the
observer for the domain packages:

  - protocol.Observer: messages serialized by type, decode outcomes
  - bootstrap.Observer: resolutions by source (cache, custom, default, override)
  - sandbox.Observer: sentinels minted, sandboxes created and live, dispatch results

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	codec := protocol.NewCodec(protocol.WithObserver(metrics))
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
