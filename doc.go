// Package dtable provides a decision-table engine: grids of rows and
// columns compile once into a Table (see package core), and each
// input record is then decided against that Table without touching
// the grid again.
//
// The core compile/decide pipeline lives in package core. Grid
// loading (CSV, YAML) lives in package grid. Expression support for
// if:/set* cells lives under interpreters. Front ends (HTTP,
// WebSocket, MQTT) and an audit log live under service. Command-line
// entry points are under cmd.
//
// See README.md for more.
package dtable
