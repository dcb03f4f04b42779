package protocol

const (
	// HuffmanEOFSymbol terminates every Huffman coded stream.
	HuffmanEOFSymbol  = 256
	HuffmanMaxSymbols = HuffmanEOFSymbol + 1
)

// GameFrequencyTable drives the tree used for every in-game payload in
// both directions. The frequencies describe typical snapshot traffic and
// are fixed; both ends must build the identical tree from them.
var GameFrequencyTable = [HuffmanMaxSymbols]uint32{
	250315, 41193, 6292, 7106, 3730, 3750, 6110, 23283,
	33317, 6950, 7838, 9714, 9257, 17259, 3949, 1778,
	8288, 1604, 1590, 1663, 1100, 1213, 1238, 1134,
	1749, 1059, 1246, 1149, 1273, 4486, 2805, 3472,
	21819, 1159, 1670, 1066, 1043, 1012, 1053, 1070,
	1726, 888, 1180, 850, 960, 780, 1752, 3296,
	10630, 4514, 5881, 2685, 4650, 3837, 2093, 1867,
	2584, 1949, 1972, 940, 1134, 1788, 1670, 1206,
	5719, 6128, 7222, 6654, 3710, 3795, 1492, 1524,
	2215, 1140, 1355, 971, 2180, 1248, 1328, 1195,
	1770, 1078, 1264, 1266, 1168, 965, 1155, 1186,
	1347, 1228, 1529, 1600, 2617, 2048, 2546, 3275,
	2410, 3585, 2504, 2800, 2675, 6146, 3663, 2840,
	14253, 3164, 2221, 1687, 3208, 2739, 3512, 4796,
	4091, 3515, 5288, 4016, 7937, 6031, 5360, 3924,
	4892, 3743, 4566, 4807, 5852, 6400, 6225, 8291,
	23243, 7838, 7073, 8935, 5437, 4483, 3641, 5256,
	5312, 5328, 5370, 3492, 2458, 1694, 1821, 2121,
	1916, 1149, 1516, 1367, 1236, 1029, 1258, 1104,
	1245, 1006, 1149, 1025, 1241, 952, 1287, 997,
	1713, 1009, 1187, 879, 1099, 929, 1078, 951,
	1656, 930, 1153, 1030, 1262, 1062, 1214, 1060,
	1621, 930, 1106, 912, 1034, 892, 1158, 990,
	1175, 850, 1121, 903, 1087, 920, 1144, 1056,
	3462, 2240, 1298, 1730, 1403, 1172, 1138, 1227,
	1754, 1356, 1454, 1257, 1781, 1300, 1896, 1577,
	2238, 1185, 1062, 1288, 1432, 1613, 1648, 1970,
	1093, 1388, 1705, 1723, 2229, 1395, 1487, 1676,
	1365, 1492, 1865, 1250, 2620, 2072, 2404, 1679,
	2077, 1978, 1762, 2105, 1872, 2844, 1960, 2062,
	3678, 2104, 1646, 2840, 2758, 2051, 2719, 2092,
	1320, 1932, 1753, 1462, 1821, 2442, 8537, 18178,
}

// ConnectFrequencyTable drives the tree that compresses the userinfo
// payload of the out-of-band connect packet. The payload is a quoted,
// backslash delimited ASCII string, so printable characters dominate.
var ConnectFrequencyTable = connectFrequencies()

func connectFrequencies() (t [HuffmanMaxSymbols]uint32) {
	for i := 0; i < 256; i++ {
		t[i] = 1
	}
	for c := byte(' '); c <= '~'; c++ {
		t[c] = 64
	}
	for c := byte('a'); c <= 'z'; c++ {
		t[c] = 128
	}
	for c := byte('0'); c <= '9'; c++ {
		t[c] = 192
	}
	t['\\'] = 256
	t['"'] = 160
	return t
}
