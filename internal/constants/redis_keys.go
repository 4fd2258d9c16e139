package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "interview"

	// SessionModulePrefix 面试会话模块
	SessionModulePrefix = "session"
	// ProfileModulePrefix 用户画像模块
	ProfileModulePrefix = "profile"

	// EntityEvals 会话内评估列表实体
	EntityEvals = "evals"
	// EntityQuestions 会话内已问题目列表实体
	EntityQuestions = "questions"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeySessionEvaluations 会话评估列表 (LIST, 元素为Evaluation JSON)
	// 格式: interview:session:evals:{sessionID}
	KeySessionEvaluations = AppPrefix + ":" + SessionModulePrefix + ":" + EntityEvals + ":%s"

	// KeySessionQuestions 会话内已问题目列表 (LIST, 元素为题目原文)
	// 格式: interview:session:questions:{sessionID}
	KeySessionQuestions = AppPrefix + ":" + SessionModulePrefix + ":" + EntityQuestions + ":%s"

	// KeyProfileLock 用户画像更新锁 (STRING)
	// 格式: interview:profile:lock:{email}
	KeyProfileLock = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityLock + ":%s"
)
