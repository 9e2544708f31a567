// Package domain define las entidades del servicio de credenciales y
// las interfaces de acceso a datos y colaboradores externos.
//
// Las implementaciones viven en internal/store (postgres, redis,
// memoria) y en los adapters de internal/notification e internal/email.
// Este paquete no conoce drivers.
package domain
