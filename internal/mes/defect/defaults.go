package defect

// DefaultCodes FQC默认缺陷代码（初始化种子数据）
func DefaultCodes() []Code {
	return []Code{
		{ID: "def-wg001", Code: "WG001", Name: "划伤", Category: CategoryAppearance},
		{ID: "def-wg002", Code: "WG002", Name: "脏污", Category: CategoryAppearance},
		{ID: "def-wg003", Code: "WG003", Name: "色差", Category: CategoryAppearance},
		{ID: "def-wg004", Code: "WG004", Name: "变形", Category: CategoryAppearance},
		{ID: "def-wg005", Code: "WG005", Name: "毛刺", Category: CategoryAppearance},
		{ID: "def-cc001", Code: "CC001", Name: "尺寸偏大", Category: CategoryDimension},
		{ID: "def-cc002", Code: "CC002", Name: "尺寸偏小", Category: CategoryDimension},
		{ID: "def-cc003", Code: "CC003", Name: "尺寸超差", Category: CategoryDimension},
		{ID: "def-xn001", Code: "XN001", Name: "功能失效", Category: CategoryPerformance},
		{ID: "def-xn002", Code: "XN002", Name: "性能不达标", Category: CategoryPerformance},
		{ID: "def-zp001", Code: "ZP001", Name: "漏装", Category: CategoryAssembly},
		{ID: "def-zp002", Code: "ZP002", Name: "错装", Category: CategoryAssembly},
		{ID: "def-zp003", Code: "ZP003", Name: "螺丝松动", Category: CategoryAssembly},
		{ID: "def-dq001", Code: "DQ001", Name: "短路", Category: CategoryElectrical},
		{ID: "def-dq002", Code: "DQ002", Name: "断路", Category: CategoryElectrical},
		{ID: "def-dq003", Code: "DQ003", Name: "绝缘不良", Category: CategoryElectrical},
	}
}
