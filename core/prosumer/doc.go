// Package prosumer implements the leaf agents of the grid: environment
// driven producers (solar panels, wind turbines) and charging stations.
//
// Every leaf reports one PowerReading per tick to its parent network.
// Generation is reported positive and consumption negative.
package prosumer
