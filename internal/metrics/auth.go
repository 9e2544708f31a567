package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de autenticación. Paquete standalone para evitar ciclos de
// import entre el service y el HTTP layer.

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credentiald_login_attempts_total",
		Help: "Intentos de login por identity provider",
	}, []string{"provider"})

	LoginFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credentiald_login_failures_total",
		Help: "Logins fallidos por causa",
	}, []string{"reason"})

	BreakerTrips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credentiald_breaker_trips_total",
		Help: "Rechazos del circuit breaker de logins fallidos",
	})

	SessionsEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credentiald_sessions_ended_total",
		Help: "Sesiones terminadas (logout, evicción, expiración)",
	})
)

// Register registra las métricas en el registry dado (default si nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{LoginAttempts, LoginFailures, BreakerTrips, SessionsEnded} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
