package explainer

import "phishguard/pkg/domain"

// ThreatConfig 拦截原因的通用说明
type ThreatConfig struct {
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	Level       domain.RiskLevel `json:"level"`
	Description string           `json:"description"`
	Advice      []string         `json:"advice"`
	Risks       []string         `json:"risks"`
}

// WarningDetail 具体警告的解释与建议
type WarningDetail struct {
	Description string   `json:"description"`
	Advice      []string `json:"advice"`
}

// SeverityLevel 风险等级的展示名称与颜色
type SeverityLevel struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var threatConfigs = map[domain.Reason]ThreatConfig{
	domain.ReasonPhishing: {
		Title:       "已拦截：网络钓鱼网站",
		Category:    "网络钓鱼",
		Level:       domain.RiskCritical,
		Description: "此网站伪装成合法服务，试图窃取您的信息。",
		Advice:      []string{"不要输入密码", "检查网址", "立即离开"},
		Risks:       []string{"个人信息被盗", "账户被入侵", "财务损失"},
	},
	domain.ReasonMalware: {
		Title:       "已拦截：恶意软件网站",
		Category:    "恶意软件",
		Level:       domain.RiskCritical,
		Description: "此网站可能传播病毒、木马，访问可能导致设备感染。",
		Advice:      []string{"立即关闭标签页", "运行杀毒软件", "不要下载文件"},
		Risks:       []string{"设备感染", "文件丢失", "系统被控"},
	},
	domain.ReasonFraud: {
		Title:       "已拦截：欺诈网站",
		Category:    "欺诈",
		Level:       domain.RiskHigh,
		Description: "此网站涉及虚假产品或投资骗局。",
		Advice:      []string{"不要付款", "联系银行", "核实信誉"},
		Risks:       []string{"经济损失", "信息泄露", "诈骗陷阱"},
	},
	domain.ReasonSuspicious: {
		Title:       "已拦截：可疑网站",
		Category:    "可疑内容",
		Level:       domain.RiskMedium,
		Description: "此网站表现出可疑特征，建议保持警惕。",
		Advice:      []string{"谨慎浏览", "不要下载", "检查证书"},
		Risks:       []string{"误导信息", "隐私泄露", "广告骚扰"},
	},
	domain.ReasonBlacklisted: {
		Title:       "已拦截：高风险网站",
		Category:    "安全威胁",
		Level:       domain.RiskHigh,
		Description: "此网站被检测出存在安全隐患。",
		Advice:      []string{"立即离开", "清理缓存", "运行扫描"},
		Risks:       []string{"安全风险", "数据泄露", "隐私侵犯"},
	},
}

var warningDetails = map[string]WarningDetail{
	"⚠️ 异常WHOIS记录": {
		Description: "该网站的域名注册信息（WHOIS）被隐藏、缺失或显示异常。合法的商业网站通常会公开其注册信息，而攻击者往往隐藏身份以逃避追踪。",
		Advice: []string{
			"无法验证网站所有者身份，请勿进行交易",
			"不要输入银行卡号或密码",
			"检查域名拼写是否与官方域名有细微差别",
		},
	},
	"⚠️ URL长度可疑": {
		Description: "该网页的网址（URL）长度异常，远超正常标准。攻击者常通过极长的URL来隐藏其中的恶意代码、重定向指令或伪造的域名信息。",
		Advice: []string{
			"不要点击长链接，尽量手动输入官方网址",
			"注意地址栏中是否有奇怪的字符或填充内容",
			"立即关闭页面，不要下载任何内容",
		},
	},
	"⚠️ 使用短链接服务": {
		Description: "该链接使用了短链接服务（如bit.ly等）进行跳转。虽然短链接很常见，但在涉及敏感信息的场景中，攻击者常利用它来掩盖真实的恶意目标地址。",
		Advice: []string{
			"不要在跳转后的页面输入任何个人信息",
			"使用URL还原工具查看其真实目的地址",
			"如果是陌生邮件发来的短链，切勿点击",
		},
	},
	"⚠️ URL包含IP地址": {
		Description: "该网址直接使用IP地址（如 192.168.x.x）而不是域名。合法的公共服务网站几乎总是使用域名。这极有可能是恶意服务器或被黑客控制的设备。",
		Advice: []string{
			"绝对不要在此类页面输入账号密码",
			"立即离开，该服务器可能正在尝试通过漏洞攻击您的设备",
			"不要下载页面上的任何插件",
		},
	},
	"⚠️ URL包含@符号": {
		Description: "网址中包含 '@' 符号。这是一种古老的欺骗手段，浏览器可能会忽略 '@' 之前的内容，直接访问 '@' 之后的恶意地址，从而误导用户。",
		Advice: []string{
			"注意观察浏览器地址栏最终显示的域名",
			"不要信任包含 '@' 的登录链接",
			"立即关闭网页",
		},
	},
	"⚠️ 存在双斜杠重定向": {
		Description: "URL路径中包含 '//'（双斜杠）。这种结构常被用于在URL内部通过重定向将用户引导至另一个未经验证的恶意站点。",
		Advice: []string{
			"仔细检查地址栏，确认当前所在的实际域名",
			"不要点击页面上的任何确认按钮",
		},
	},
	"⚠️ 域名使用连字符": {
		Description: "域名中包含连字符（-）。虽然合法，但攻击者常用它来伪造类似 'secure-bank.com' 的域名来冒充 'securebank.com'，以此进行钓鱼。",
		Advice: []string{
			"仔细比对域名与官方域名是否完全一致",
			"警惕类似 'paypal-secure' 之类的组合词",
		},
	},
	"⚠️ 无DNS记录": {
		Description: "该域名在DNS系统中没有有效的解析记录。这通常意味着该域名刚刚注册、已被注销，或者是一个临时搭建用于短期攻击的黑站。",
		Advice: []string{
			"网站极不稳定且不可信，立即离开",
			"不要相信页面上显示的任何内容",
		},
	},
	"⚠️ 过多子域名": {
		Description: "该网址使用了过多层级的子域名（如 a.b.c.d.example.com）。这是为了在移动设备上隐藏真实的主域名，让用户误以为是合法网站。",
		Advice: []string{
			"在电脑端查看完整域名后缀",
			"只信任主域名（如 example.com）部分的信誉",
		},
	},
	"⚠️ 域名注册时间短": {
		Description: "该域名的注册时间非常短（通常少于一年）。许多钓鱼网站都是“日抛型”的，注册后立即用于攻击，随后被废弃。",
		Advice: []string{
			"对于新注册的网站，不要进行金钱交易",
			"保持高度警惕，不要轻信其声誉",
		},
	},
	"⚠️ HTTPS令牌滥用": {
		Description: "URL中的HTTPS标记位置可疑。攻击者可能在子域名中使用 'https' 字符（如 https-bank.com），试图让用户误以为连接是安全的。",
		Advice: []string{
			"看到小锁图标不代表网站是合法的，只代表传输加密",
			"务必检查根域名是否正确",
		},
	},
	"⚠️ 过多重定向": {
		Description: "访问此页面经历了过多次数的跳转。这通常是为了绕过安全检测机制，或者将用户层层过滤筛选，最终导向恶意页面。",
		Advice: []string{
			"浏览器可能已被劫持，建议清理缓存",
			"不要在最终落地的页面输入信息",
		},
	},
	"⚠️ 域名年龄小于6个月": {
		Description: "该域名非常年轻（小于6个月）。虽然可能是新业务，但在没有信誉积累的情况下，通过该网站进行敏感操作风险极高。",
		Advice: []string{
			"建议等待该网站建立信誉后再访问",
			"寻找该服务的替代官方渠道",
		},
	},
}

var severityLevels = map[string]SeverityLevel{
	"critical":   {Level: "critical", Label: "严重威胁", Color: "#e74c3c"},
	"high":       {Level: "high", Label: "高风险", Color: "#f39c12"},
	"medium":     {Level: "medium", Label: "中等风险", Color: "#f1c40f"},
	"low":        {Level: "low", Label: "低风险", Color: "#3498db"},
	"suspicious": {Level: "suspicious", Label: "可疑", Color: "#95a5a6"},
}

// LookupThreat 按拦截原因查找通用说明，未知原因回退到 blacklisted
func LookupThreat(reason domain.Reason) ThreatConfig {
	if tc, ok := threatConfigs[reason]; ok {
		return tc
	}
	return threatConfigs[domain.ReasonBlacklisted]
}

// LookupWarning 按警告原文精确查找解释
func LookupWarning(w string) (WarningDetail, bool) {
	d, ok := warningDetails[w]
	return d, ok
}

// LookupSeverity 查找等级展示信息，未知等级回退到 high
func LookupSeverity(level string) SeverityLevel {
	if s, ok := severityLevels[level]; ok {
		return s
	}
	return severityLevels["high"]
}
