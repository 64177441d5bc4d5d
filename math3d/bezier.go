package math3d

// QuarticBezierNodes are the 5 control points of a quartic (4th-order)
// Bézier curve, as used for the swing-phase trajectory's primary/secondary
// polygons and the stance polygon.
type QuarticBezierNodes [5]Vector3

// QuarticBezier evaluates the curve at parameter t ∈ [0,1] via the
// Bernstein-basis expansion:
//
//	B(t) = (1-t)⁴P0 + 4(1-t)³tP1 + 6(1-t)²t²P2 + 4(1-t)t³P3 + t⁴P4
func QuarticBezier(nodes QuarticBezierNodes, t float64) Vector3 {
	u := 1 - t
	u2 := u * u
	u3 := u2 * u
	u4 := u3 * u
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t

	return sumVector3(
		nodes[0].MultiplyByScalar(u4),
		nodes[1].MultiplyByScalar(4*u3*t),
		nodes[2].MultiplyByScalar(6*u2*t2),
		nodes[3].MultiplyByScalar(4*u*t3),
		nodes[4].MultiplyByScalar(t4),
	)
}

// QuarticBezierDot evaluates the curve's derivative with respect to t:
//
//	B'(t) = 4[(1-t)³(P1-P0) + 3(1-t)²t(P2-P1) + 3(1-t)t²(P3-P2) + t³(P4-P3)]
func QuarticBezierDot(nodes QuarticBezierNodes, t float64) Vector3 {
	u := 1 - t
	u2 := u * u
	u3 := u2 * u
	t2 := t * t
	t3 := t2 * t

	d0 := nodes[1].Subtract(nodes[0]).MultiplyByScalar(u3)
	d1 := nodes[2].Subtract(nodes[1]).MultiplyByScalar(3 * u2 * t)
	d2 := nodes[3].Subtract(nodes[2]).MultiplyByScalar(3 * u * t2)
	d3 := nodes[4].Subtract(nodes[3]).MultiplyByScalar(t3)

	return sumVector3(d0, d1, d2, d3).MultiplyByScalar(4)
}

func sumVector3(vs ...Vector3) Vector3 {
	sum := ZeroVector3
	for _, v := range vs {
		sum = *sum.Add(v)
	}
	return sum
}
