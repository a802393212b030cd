package domain

// Package domain contains the core business concepts for the PDF service.
// Keep this package free of transport (HTTP) and infrastructure (Chrome) concerns.
