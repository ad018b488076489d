// Package diagram defines the crew diagram document and its file formats.
//
// A [Diagram] is what the editor saves and loads: agent nodes, a single
// output node, and task links between them. Each link carries the task the
// source agent performs for the target (description and expected output).
//
// Diagrams are stored as JSON. [ReadFile] also accepts YAML when the file
// extension is .yaml or .yml, which is convenient for hand-written crews.
//
// [Diagram.Normalize] fills defaults the editor would otherwise add on load,
// [Diagram.EnsureOutput] wires dangling agents to the output node, and
// [Diagram.Validate] reports structural problems. [Diagram.LayoutInput]
// adapts a diagram to the layout leveler.
package diagram
