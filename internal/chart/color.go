package chart

var graphColors = []string{
	"#DC3912", "#FF9900", "#109618", "#990099", "#3366CC", "#0099C6", "#DD4477", "#66AA00",
	"#B82E2E", "#316395", "#994499", "#22AA99", "#AAAA11", "#6633CC", "#E67300", "#8B0707",
	"#651067", "#329262", "#5574A6", "#3B3EAC", "#B77322", "#16D620", "#B91383", "#F4359E",
	"#9C5935", "#A9C413", "#2A778D", "#668D1C", "#BEA413", "#0C5922", "#743411", "#45AFE2",
	"#FF3300", "#FFCC00", "#14C21D", "#DF51FD", "#15CBFF", "#FF97D2", "#97FB00", "#DB6651",
	"#518BC6", "#BD6CBD", "#35D7C2", "#E9E91F", "#9877DD", "#FF8F20", "#D20B0B",
}

// GraphColor picks a stable color for an entity. Meters walk the palette
// forwards by id and groups walk it backwards.
func GraphColor(id int64, kind Kind) string {
	n := int64(len(graphColors))
	i := ((id % n) + n) % n
	if kind == KindGroup {
		i = n - 1 - i
	}
	return graphColors[i]
}
