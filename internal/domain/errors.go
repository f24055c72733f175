package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrIdentityUnavailable = errors.New("servicio de identidad no disponible")
	ErrSessionExpired      = errors.New("sesión expirada")
	ErrMalformedSession    = errors.New("sesión malformada")
	ErrUnknownRole         = errors.New("cargo desconocido")
)
