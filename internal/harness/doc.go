// Package harness drives reproducibility checks of a deployed interatomic
// potential against an MD engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: water-smoke
//	description: "What this scenario checks"
//	model:
//	  dir: /models
//	  chemical_symbols: [H, O]
//	  cutoff: 4.0
//	  artifacts:
//	    cpu: cpu_deployed.nequip.pt2
//	modes: [cpu]
//	devices: [cpu]
//	engine:
//	  binary: lmp
//	  convention: lammps-metal
//	tolerance:
//	  atol: 1.0e-6
//	  rtol: 1.0e-5
//	reference:
//	  kind: lennard-jones
//	  epsilon: 0.1
//	  sigma: 1.1
//	structures:
//	  - name: dimer
//	    symbols: [H, H]
//	    positions: [[0, 0, 0], [1, 0, 0]]
//
// # Cases
//
// Run expands modes × devices × structures into cases, in that order. Each
// case runs in its own temporary workspace through these stages:
//
//   - generate: reference neighbor list, data file and control deck
//   - engine: run the engine and capture its standard output
//   - parse: extract the engine's neighbor list and cell
//   - reconcile: check the two neighbor lists (and cells) are equivalent
//   - dump: read forces, energies and stress the engine wrote
//   - evaluate: evaluate the reference potential directly
//   - compare: compare both sets of quantities under the engine convention
//
// The first failing stage ends its case; the run continues with the next
// case. Nothing is retried.
package harness
