package earthengine

import "encoding/json"

// node is one value in an Earth Engine expression graph: either a constant
// or a server-side function invocation with named arguments.
type node struct {
	constant   any
	invocation *invocation
}

type invocation struct {
	FunctionName string          `json:"functionName"`
	Arguments    map[string]node `json:"arguments,omitempty"`
}

// MarshalJSON emits constants explicitly so zero values and false survive.
func (n node) MarshalJSON() ([]byte, error) {
	if n.invocation != nil {
		return json.Marshal(map[string]any{"functionInvocationValue": n.invocation})
	}
	return json.Marshal(map[string]any{"constantValue": n.constant})
}

// expression is the body of value:compute. The graph is nested inline, so
// the value table holds only the root.
type expression struct {
	Result string          `json:"result"`
	Values map[string]node `json:"values"`
}

func newExpression(root node) expression {
	return expression{Result: "0", Values: map[string]node{"0": root}}
}

func call(name string, args map[string]node) node {
	return node{invocation: &invocation{FunctionName: name, Arguments: args}}
}

func constant(v any) node {
	return node{constant: v}
}

// --- builders mirroring the client library helpers used here ---

func loadImage(id string) node {
	return call("Image.load", map[string]node{"id": constant(id)})
}

func firstImage(collectionID string) node {
	return call("Collection.first", map[string]node{
		"collection": call("ImageCollection.load", map[string]node{"id": constant(collectionID)}),
	})
}

func rename(img node, names ...string) node {
	return call("Image.rename", map[string]node{"input": img, "names": constant(names)})
}

func point(lat, lon float64) node {
	return call("GeometryConstructors.Point", map[string]node{"coordinates": constant([]float64{lon, lat})})
}

func buffer(geom node, distanceM float64) node {
	return call("Geometry.buffer", map[string]node{"geometry": geom, "distance": constant(distanceM)})
}

func bounds(geom node) node {
	return call("Geometry.bounds", map[string]node{"geometry": geom})
}
